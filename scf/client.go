// Package scf is the product client for Serverless Cloud Functions.
// It wraps the universal Cloud API client with the typed function,
// namespace, trigger and layer surface, an invoke dispatcher and the
// routine call convention.
package scf

import (
	"encoding/json"
	"os"

	"github.com/devmiek/tencent-cloud-sdk-go/auth"
	"github.com/devmiek/tencent-cloud-sdk-go/core"
)

const (
	productID        = "scf"
	apiVersion       = "2018-04-16"
	internalEndpoint = "scf.internal.tencentcloudapi.com"

	monitorProductID  = "monitor"
	monitorAPIVersion = "2018-07-24"
)

// Environment variables set inside the cloud-function runtime
// container.
const (
	EnvRunEnv    = "TENCENTCLOUD_RUNENV"
	EnvRegion    = "TENCENTCLOUD_REGION"
	EnvNamespace = "SCF_NAMESPACE"

	runEnvCloudFunction = "SCF"
)

// FunctionType enumerates supported function types.
const (
	FunctionTypeEvent       = "Event"
	FunctionTypeHTTPService = "HTTP"
)

// Supported function runtime names.
const (
	RuntimePython = "Python3.6"
	RuntimeNodejs = "Nodejs8.9"
	RuntimePHP    = "PHP7"
	RuntimeGolang = "Golang1"
	RuntimeJava   = "Java8"
)

// Client is the Serverless Cloud Functions product client.
type Client struct {
	*core.UniversalClient

	// monitorEndpoint overrides the endpoint used for monitor data
	// submission; empty means the public monitor endpoint.
	monitorEndpoint string
}

// NewClient returns a product client. Inside a cloud-function
// container the internal API endpoint is used automatically.
func NewClient(credentials auth.Credentials, config ...core.Config) (*Client, error) {
	universal, err := core.NewUniversalClient(productID, credentials, config...)
	if err != nil {
		return nil, err
	}

	c := &Client{UniversalClient: universal}
	if InCloudFunction() {
		if err := c.SetEndpoint(internalEndpoint); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SetMonitorEndpoint overrides the monitor product endpoint, for
// deployments reaching monitoring over a private link.
func (c *Client) SetMonitorEndpoint(endpoint string) {
	c.monitorEndpoint = endpoint
}

// InCloudFunction reports whether the process runs inside a
// cloud-function container.
func InCloudFunction() bool {
	return os.Getenv(EnvRunEnv) == runEnvCloudFunction
}

func defaultRegion() string {
	return os.Getenv(EnvRegion)
}

func defaultNamespace() string {
	if namespace := os.Getenv(EnvNamespace); namespace != "" {
		return namespace
	}
	return "default"
}

// decodeReturnValue infers the native value of a function return
// payload: JSON when it parses, the raw string otherwise.
func decodeReturnValue(raw string) interface{} {
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}
