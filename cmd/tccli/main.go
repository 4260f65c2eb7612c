// Command tccli is a small operations tool over the SDK: it invokes
// cloud functions and lists functions, namespaces and serverless
// database instances using credentials from the environment.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/devmiek/tencent-cloud-sdk-go/auth"
	"github.com/devmiek/tencent-cloud-sdk-go/core"
	"github.com/devmiek/tencent-cloud-sdk-go/postgres"
	"github.com/devmiek/tencent-cloud-sdk-go/scf"
	"github.com/spf13/cobra"
)

var (
	flagRegion    string
	flagNamespace string
)

func newCredentials() (auth.Credentials, error) {
	if path := os.Getenv("TENCENTCLOUD_CREDENTIALS_FILE"); path != "" {
		return auth.NewFileCredentials(path)
	}
	return auth.NewEnvironmentCredentials()
}

func newFunctionClient() (*scf.Client, error) {
	credentials, err := newCredentials()
	if err != nil {
		return nil, err
	}
	return scf.NewClient(credentials)
}

func newDatabaseClient() (*postgres.Client, error) {
	credentials, err := newCredentials()
	if err != nil {
		return nil, err
	}
	return postgres.NewClient(credentials)
}

func newInvokeCommand() *cobra.Command {
	var (
		version      string
		event        string
		asynchronous bool
	)
	cmd := &cobra.Command{
		Use:   "invoke <function-name>",
		Short: "Invoke a cloud function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newFunctionClient()
			if err != nil {
				return err
			}

			input := scf.InvokeInput{
				RegionID:     flagRegion,
				Namespace:    flagNamespace,
				FunctionName: args[0],
				Version:      version,
				Asynchronous: asynchronous,
			}
			if event != "" {
				var value interface{}
				if err := json.Unmarshal([]byte(event), &value); err != nil {
					return fmt.Errorf("event is not valid JSON: %w", err)
				}
				input.Event = value
			}

			result, err := client.Invoke(cmd.Context(), input)
			if err != nil {
				return err
			}
			if asynchronous {
				fmt.Fprintf(cmd.OutOrStdout(), "accepted, request id %s\n", result.RequestID)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.ReturnResult)
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "function-version", "", "invoke a published version instead of $LATEST")
	cmd.Flags().StringVar(&event, "event", "", "JSON event delivered to the function")
	cmd.Flags().BoolVar(&asynchronous, "async", false, "submit the event without waiting for execution")
	return cmd
}

func newFunctionListCommand() *cobra.Command {
	var searchKey string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the functions of a namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newFunctionClient()
			if err != nil {
				return err
			}

			var filter *scf.FunctionsFilter
			if searchKey != "" {
				filter = &scf.FunctionsFilter{SearchKey: searchKey}
			}
			it := client.Functions(flagRegion, flagNamespace, filter)
			for {
				summary, err := it.Next(cmd.Context())
				if err != nil {
					if errors.Is(err, core.ErrNotFound) {
						return nil
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n",
					summary.Name, summary.Runtime, summary.Status)
			}
		},
	}
	cmd.Flags().StringVar(&searchKey, "search", "", "filter functions by a name fragment")
	return cmd
}

func newFunctionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "function",
		Short: "Manage cloud functions",
	}
	cmd.AddCommand(newFunctionListCommand())
	return cmd
}

func newNamespaceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "namespace",
		Short: "Manage function namespaces",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the namespaces of a region",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newFunctionClient()
			if err != nil {
				return err
			}

			it := client.Namespaces(flagRegion)
			for {
				namespace, err := it.Next(cmd.Context())
				if err != nil {
					if errors.Is(err, core.ErrNotFound) {
						return nil
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", namespace.Name, namespace.Type)
			}
		},
	})
	return cmd
}

func newDatabaseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "database",
		Short: "Manage serverless database instances",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the instances of a region",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newDatabaseClient()
			if err != nil {
				return err
			}

			it := client.Instances(flagRegion, nil)
			for {
				info, err := it.Next(cmd.Context())
				if err != nil {
					if errors.Is(err, core.ErrNotFound) {
						return nil
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", info.ID, info.Name, info.Status)
			}
		},
	})
	return cmd
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "tccli",
		Short:         "Tencent Cloud serverless operations tool",
		Version:       core.VersionText(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagRegion, "region", "", "region identifier, falls back to TENCENTCLOUD_REGION")
	root.PersistentFlags().StringVar(&flagNamespace, "namespace", "", "function namespace, falls back to SCF_NAMESPACE")

	root.AddCommand(newInvokeCommand())
	root.AddCommand(newFunctionCommand())
	root.AddCommand(newNamespaceCommand())
	root.AddCommand(newDatabaseCommand())
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tccli:", err)
		os.Exit(1)
	}
}
