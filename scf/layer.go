package scf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devmiek/tencent-cloud-sdk-go/core"
	"golang.org/x/sync/errgroup"
)

// deleteLayerConcurrency bounds parallel version deletions when a
// whole layer is removed.
const deleteLayerConcurrency = 4

// Layer version statuses reported by the platform.
const (
	LayerStatusActive        = "Active"
	LayerStatusPublishing    = "Publishing"
	LayerStatusPublishFailed = "PublishFailed"
	LayerStatusDeleted       = "Deleted"
)

// LayerInfo describes a published layer version.
type LayerInfo struct {
	Name        string
	Description string
	Version     int
	Runtimes    []string
	License     string
	Status      string
	CreateTime  string

	// Content is populated only by GetLayerInfo.
	Content *LayerContentInfo
}

// LayerContentInfo is the downloadable content of a layer version.
type LayerContentInfo struct {
	DownloadURL string
	CodeSHA256  string
}

type layerEntry struct {
	LayerName          string   `json:"LayerName"`
	Description        string   `json:"Description"`
	LayerVersion       int      `json:"LayerVersion"`
	CompatibleRuntimes []string `json:"CompatibleRuntimes"`
	LicenseInfo        string   `json:"LicenseInfo"`
	Status             string   `json:"Status"`
	AddTime            string   `json:"AddTime"`
	Location           string   `json:"Location"`
	CodeSha256         string   `json:"CodeSha256"`
}

func (e layerEntry) toInfo() LayerInfo {
	info := LayerInfo{
		Name:        e.LayerName,
		Description: e.Description,
		Version:     e.LayerVersion,
		Runtimes:    e.CompatibleRuntimes,
		License:     e.LicenseInfo,
		Status:      e.Status,
		CreateTime:  e.AddTime,
	}
	if e.Location != "" || e.CodeSha256 != "" {
		info.Content = &LayerContentInfo{
			DownloadURL: e.Location,
			CodeSHA256:  e.CodeSha256,
		}
	}
	return info
}

// CreateLayerInput describes a layer version to publish.
type CreateLayerInput struct {
	RegionID    string
	LayerName   string
	Description string
	Content     *LayerContent

	// Runtimes lists compatible runtimes; defaults to RuntimePython.
	Runtimes []string

	License string
}

// CreateLayer publishes a new layer version. The returned operation
// carries the version number eagerly and waits until the version
// becomes visible.
func (c *Client) CreateLayer(ctx context.Context, input CreateLayerInput) (*core.Operation, error) {
	if input.LayerName == "" {
		return nil, fmt.Errorf("create layer: layer name required")
	}
	if input.Content == nil {
		return nil, fmt.Errorf("create layer: content required")
	}
	content, err := input.Content.codeParameters()
	if err != nil {
		return nil, err
	}
	regionID := input.RegionID
	if regionID == "" {
		regionID = defaultRegion()
	}
	runtimes := input.Runtimes
	if len(runtimes) == 0 {
		runtimes = []string{RuntimePython}
	}

	params := map[string]interface{}{
		"LayerName":          input.LayerName,
		"Content":            content,
		"CompatibleRuntimes": runtimes,
	}
	if input.Description != "" {
		params["Description"] = input.Description
	}
	if input.License != "" {
		params["LicenseInfo"] = input.License
	}

	var response struct {
		LayerVersion int `json:"LayerVersion"`
	}
	if err := c.Action(ctx, regionID, "PublishLayerVersion", apiVersion, params, &response); err != nil {
		return nil, err
	}
	version := response.LayerVersion

	operation := core.NewOperation(func(ctx context.Context) (interface{}, error) {
		for {
			_, err := c.GetLayerInfo(ctx, regionID, input.LayerName, version)
			if err == nil {
				return version, nil
			}
			if !isLayerNotFound(err) {
				return nil, err
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(waitPollInterval):
			}
		}
	})
	operation.SetResult(version)
	return operation, nil
}

func isLayerNotFound(err error) bool {
	var actionErr *core.ActionError
	return errors.As(err, &actionErr) && actionErr.Code == "ResourceNotFound.LayerVersion"
}

// DeleteLayer removes one layer version, or every version when the
// version is zero.
func (c *Client) DeleteLayer(ctx context.Context, regionID, layerName string, version int) error {
	if layerName == "" {
		return fmt.Errorf("delete layer: layer name required")
	}
	if regionID == "" {
		regionID = defaultRegion()
	}
	if version > 0 {
		return c.deleteLayerVersion(ctx, regionID, layerName, version)
	}

	versions, err := c.ListLayerVersions(ctx, regionID, layerName, "")
	if err != nil {
		return err
	}
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(deleteLayerConcurrency)
	for _, layer := range versions {
		layer := layer
		group.Go(func() error {
			return c.deleteLayerVersion(ctx, regionID, layerName, layer.Version)
		})
	}
	return group.Wait()
}

func (c *Client) deleteLayerVersion(ctx context.Context, regionID, layerName string, version int) error {
	return c.Action(ctx, regionID, "DeleteLayerVersion", apiVersion, map[string]interface{}{
		"LayerName":    layerName,
		"LayerVersion": version,
	}, nil)
}

// GetLayerInfo fetches one layer version, including its content
// download address.
func (c *Client) GetLayerInfo(ctx context.Context, regionID, layerName string, version int) (*LayerInfo, error) {
	if layerName == "" {
		return nil, fmt.Errorf("get layer: layer name required")
	}
	if regionID == "" {
		regionID = defaultRegion()
	}

	var response layerEntry
	err := c.Action(ctx, regionID, "GetLayerVersion", apiVersion, map[string]interface{}{
		"LayerName":    layerName,
		"LayerVersion": version,
	}, &response)
	if err != nil {
		return nil, err
	}
	info := response.toInfo()
	return &info, nil
}

// ListLayerVersions lists every published version of a layer, newest
// first, optionally filtered by a compatible runtime.
func (c *Client) ListLayerVersions(ctx context.Context, regionID, layerName, compatibleRuntime string) ([]LayerInfo, error) {
	if layerName == "" {
		return nil, fmt.Errorf("list layer versions: layer name required")
	}
	if regionID == "" {
		regionID = defaultRegion()
	}

	params := map[string]interface{}{
		"LayerName": layerName,
	}
	if compatibleRuntime != "" {
		params["CompatibleRuntime"] = []string{compatibleRuntime}
	}

	var response struct {
		LayerVersions []layerEntry `json:"LayerVersions"`
	}
	err := c.Action(ctx, regionID, "ListLayerVersions", apiVersion, params, &response)
	if err != nil {
		return nil, err
	}
	layers := make([]LayerInfo, 0, len(response.LayerVersions))
	for _, entry := range response.LayerVersions {
		layers = append(layers, entry.toInfo())
	}
	return layers, nil
}

// LayerIterator walks every layer in a region, the newest version of
// each.
type LayerIterator struct {
	client            *Client
	regionID          string
	compatibleRuntime string
	searchKey         string

	offset int
	buffer []LayerInfo
	done   bool
}

// Layers returns an iterator over the layers of a region. An optional
// compatible runtime or search key narrows the listing.
func (c *Client) Layers(regionID, compatibleRuntime, searchKey string) *LayerIterator {
	if regionID == "" {
		regionID = defaultRegion()
	}
	return &LayerIterator{
		client:            c,
		regionID:          regionID,
		compatibleRuntime: compatibleRuntime,
		searchKey:         searchKey,
	}
}

// Next returns the next layer, or a core.ErrNotFound wrapped error
// when the listing is exhausted.
func (it *LayerIterator) Next(ctx context.Context) (*LayerInfo, error) {
	if len(it.buffer) == 0 && !it.done {
		if err := it.fetch(ctx); err != nil {
			return nil, err
		}
	}
	if len(it.buffer) == 0 {
		return nil, fmt.Errorf("no more layers: %w", core.ErrNotFound)
	}
	layer := it.buffer[0]
	it.buffer = it.buffer[1:]
	return &layer, nil
}

func (it *LayerIterator) fetch(ctx context.Context) error {
	params := map[string]interface{}{
		"Offset": it.offset,
		"Limit":  listPageLimit,
	}
	if it.compatibleRuntime != "" {
		params["CompatibleRuntime"] = []string{it.compatibleRuntime}
	}
	if it.searchKey != "" {
		params["SearchKey"] = it.searchKey
	}

	var response struct {
		Layers     []layerEntry `json:"Layers"`
		TotalCount int          `json:"TotalCount"`
	}
	err := it.client.Action(ctx, it.regionID, "ListLayers", apiVersion, params, &response)
	if err != nil {
		return err
	}
	for _, entry := range response.Layers {
		it.buffer = append(it.buffer, entry.toInfo())
	}
	it.offset += len(response.Layers)
	if len(response.Layers) < listPageLimit || it.offset >= response.TotalCount {
		it.done = true
	}
	return nil
}
