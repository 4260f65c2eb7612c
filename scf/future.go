package scf

import (
	"context"
	"errors"
	"time"

	"github.com/devmiek/tencent-cloud-sdk-go/core"
)

// ResultFuture resolves the execution result of an asynchronous
// invocation once the platform has recorded its log entry.
type ResultFuture struct {
	client *Client

	regionID     string
	namespace    string
	functionName string
	version      string
	requestID    string

	// PollInterval paces the result polling; zero means one second.
	PollInterval time.Duration
}

func (c *Client) newResultFuture(input InvokeInput, requestID string) *ResultFuture {
	regionID := input.RegionID
	if regionID == "" {
		regionID = defaultRegion()
	}
	namespace := input.Namespace
	if namespace == "" {
		namespace = defaultNamespace()
	}
	return &ResultFuture{
		client:       c,
		regionID:     regionID,
		namespace:    namespace,
		functionName: input.FunctionName,
		version:      input.Version,
		requestID:    requestID,
	}
}

// RequestID returns the request identifier of the invocation the
// future tracks.
func (f *ResultFuture) RequestID() string {
	return f.requestID
}

// Get polls until the execution result is available or the context
// expires. Bound the wait with a context deadline.
func (f *ResultFuture) Get(ctx context.Context) (*FunctionResult, error) {
	interval := f.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	for {
		result, err := f.client.GetFunctionResultByRequestID(ctx,
			f.regionID, f.namespace, f.functionName, f.requestID, f.version)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}
