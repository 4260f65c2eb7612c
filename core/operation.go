package core

import (
	"context"
	"sync"
)

// OperationStatus enumerates the lifecycle of a waitable operation.
type OperationStatus int32

const (
	OperationCreated OperationStatus = iota
	OperationWaiting
	OperationCompleted
)

// Operation represents a long-running server-side operation that was
// accepted but may not have completed yet, such as function or layer
// creation. Wait blocks until the operation settles; bound the wait
// with a context deadline.
type Operation struct {
	handler func(context.Context) (interface{}, error)

	mu     sync.Mutex
	status OperationStatus
	result interface{}
}

// NewOperation wraps a wait handler into an Operation. The handler is
// expected to poll until the operation settles and return its result.
func NewOperation(handler func(context.Context) (interface{}, error)) *Operation {
	return &Operation{handler: handler}
}

// Wait runs the wait handler. A failed or cancelled wait resets the
// operation so it can be waited on again.
func (o *Operation) Wait(ctx context.Context) (interface{}, error) {
	o.mu.Lock()
	o.status = OperationWaiting
	o.mu.Unlock()

	result, err := o.handler(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.status = OperationCreated
		return nil, err
	}
	o.status = OperationCompleted
	o.result = result
	return result, nil
}

// Status returns the current operation status.
func (o *Operation) Status() OperationStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Done reports whether the operation has completed.
func (o *Operation) Done() bool {
	return o.Status() == OperationCompleted
}

// Result returns the settled result, or the eagerly known result for
// operations that resolve part of their outcome at submit time (layer
// publication returns its version immediately).
func (o *Operation) Result() interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// SetResult stores an eagerly known result.
func (o *Operation) SetResult(result interface{}) {
	o.mu.Lock()
	o.result = result
	o.mu.Unlock()
}
