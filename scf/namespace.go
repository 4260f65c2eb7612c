package scf

import (
	"context"
	"fmt"

	"github.com/devmiek/tencent-cloud-sdk-go/core"
)

// NamespaceInfo describes a function namespace.
type NamespaceInfo struct {
	Name             string
	Description      string
	Type             string
	CreateTime       string
	LastModifiedTime string
}

type namespaceEntry struct {
	Name        string `json:"Name"`
	Description string `json:"Description"`
	Type        string `json:"Type"`
	AddTime     string `json:"AddTime"`
	ModTime     string `json:"ModTime"`
}

func (e namespaceEntry) toInfo() NamespaceInfo {
	return NamespaceInfo{
		Name:             e.Name,
		Description:      e.Description,
		Type:             e.Type,
		CreateTime:       e.AddTime,
		LastModifiedTime: e.ModTime,
	}
}

// CreateNamespace creates a function namespace.
func (c *Client) CreateNamespace(ctx context.Context, regionID, name, description string) error {
	if name == "" {
		return fmt.Errorf("create namespace: name required")
	}
	if regionID == "" {
		regionID = defaultRegion()
	}
	params := map[string]interface{}{
		"Namespace": name,
	}
	if description != "" {
		params["Description"] = description
	}
	return c.Action(ctx, regionID, "CreateNamespace", apiVersion, params, nil)
}

// DeleteNamespace removes a function namespace.
func (c *Client) DeleteNamespace(ctx context.Context, regionID, name string) error {
	if name == "" {
		return fmt.Errorf("delete namespace: name required")
	}
	if regionID == "" {
		regionID = defaultRegion()
	}
	return c.Action(ctx, regionID, "DeleteNamespace", apiVersion, map[string]interface{}{
		"Namespace": name,
	}, nil)
}

// UpdateNamespace changes the description of a namespace.
func (c *Client) UpdateNamespace(ctx context.Context, regionID, name, description string) error {
	if name == "" {
		return fmt.Errorf("update namespace: name required")
	}
	if regionID == "" {
		regionID = defaultRegion()
	}
	return c.Action(ctx, regionID, "UpdateNamespace", apiVersion, map[string]interface{}{
		"Namespace":   name,
		"Description": description,
	}, nil)
}

// NamespaceIterator walks every namespace of a region.
type NamespaceIterator struct {
	client   *Client
	regionID string

	offset int
	buffer []NamespaceInfo
	done   bool
}

// Namespaces returns an iterator over the namespaces of a region.
func (c *Client) Namespaces(regionID string) *NamespaceIterator {
	if regionID == "" {
		regionID = defaultRegion()
	}
	return &NamespaceIterator{client: c, regionID: regionID}
}

// Next returns the next namespace, or a core.ErrNotFound wrapped
// error when the listing is exhausted.
func (it *NamespaceIterator) Next(ctx context.Context) (*NamespaceInfo, error) {
	if len(it.buffer) == 0 && !it.done {
		if err := it.fetch(ctx); err != nil {
			return nil, err
		}
	}
	if len(it.buffer) == 0 {
		return nil, fmt.Errorf("no more namespaces: %w", core.ErrNotFound)
	}
	namespace := it.buffer[0]
	it.buffer = it.buffer[1:]
	return &namespace, nil
}

func (it *NamespaceIterator) fetch(ctx context.Context) error {
	var response struct {
		Namespaces []namespaceEntry `json:"Namespaces"`
		TotalCount int              `json:"TotalCount"`
	}
	err := it.client.Action(ctx, it.regionID, "ListNamespaces", apiVersion, map[string]interface{}{
		"Offset": it.offset,
		"Limit":  listPageLimit,
	}, &response)
	if err != nil {
		return err
	}
	for _, entry := range response.Namespaces {
		it.buffer = append(it.buffer, entry.toInfo())
	}
	it.offset += len(response.Namespaces)
	if len(response.Namespaces) < listPageLimit || it.offset >= response.TotalCount {
		it.done = true
	}
	return nil
}
