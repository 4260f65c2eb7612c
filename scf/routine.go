package scf

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/devmiek/tencent-cloud-sdk-go/core"
)

// RoutineFunc is a routine hosted by a dispatch-style cloud function.
// The parameter is the decoded routine_parameter value of the invoke
// event; the returned value becomes the function return payload.
type RoutineFunc func(ctx context.Context, parameter interface{}) (interface{}, error)

// RoutineDispatcher is the receiving half of the routine convention:
// it runs inside a cloud function, decodes protocol events built by
// RoutineInvoke and dispatches them to registered routines by name.
type RoutineDispatcher struct {
	mu       sync.RWMutex
	routines map[string]RoutineFunc
}

// NewRoutineDispatcher returns a dispatcher with no routines bound.
func NewRoutineDispatcher() *RoutineDispatcher {
	return &RoutineDispatcher{routines: make(map[string]RoutineFunc)}
}

// Register binds a routine under a name. Rebinding an already bound
// name is rejected.
func (d *RoutineDispatcher) Register(name string, routine RoutineFunc) error {
	if name == "" {
		return fmt.Errorf("routine: routine name required")
	}
	if routine == nil {
		return fmt.Errorf("routine: routine function required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.routines[name]; ok {
		return fmt.Errorf("routine %s already bound: %w", name, core.ErrExisted)
	}
	d.routines[name] = routine
	return nil
}

// Unregister removes a bound routine.
func (d *RoutineDispatcher) Unregister(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.routines[name]; !ok {
		return fmt.Errorf("no such routine %s: %w", name, core.ErrNotFound)
	}
	delete(d.routines, name)
	return nil
}

// Handle processes one cloud function invoke event carrying a routine
// call and returns the routine's result. Events without a protocol
// member, with an unsupported protocol version or with an undecodable
// payload are rejected; an unbound routine name yields a
// core.ErrNotFound wrapped error.
func (d *RoutineDispatcher) Handle(ctx context.Context, event []byte) (interface{}, error) {
	var envelope struct {
		Protocol *routineProtocol `json:"protocol"`
	}
	if err := json.Unmarshal(event, &envelope); err != nil {
		return nil, fmt.Errorf("routine: event invalid: %w", err)
	}
	if envelope.Protocol == nil {
		return nil, fmt.Errorf("routine: unsupported invoke request")
	}
	if envelope.Protocol.Version != routineProtocolVersion {
		return nil, fmt.Errorf("routine: unsupported protocol version %d", envelope.Protocol.Version)
	}

	raw, err := base64.StdEncoding.DecodeString(envelope.Protocol.Payload)
	if err != nil {
		return nil, fmt.Errorf("routine: protocol payload invalid: %w", err)
	}
	var payload routinePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("routine: protocol payload invalid: %w", err)
	}
	if payload.RoutineName == "" {
		return nil, fmt.Errorf("routine: protocol payload missing routine name")
	}

	d.mu.RLock()
	routine, ok := d.routines[payload.RoutineName]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no such routine %s: %w", payload.RoutineName, core.ErrNotFound)
	}
	return routine(ctx, payload.RoutineParameter)
}
