package scf

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Invocation types understood by the Invoke action.
const (
	invocationSync  = "RequestResponse"
	invocationEvent = "Event"
)

// InvokeError reports a function invocation that the platform accepted
// but whose execution failed.
type InvokeError struct {
	Message   string
	RequestID string
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("invoke error: %s; request-id: %s", e.Message, e.RequestID)
}

// InvokeInput describes one function invocation. RegionID and
// Namespace fall back to the container environment when empty.
type InvokeInput struct {
	RegionID     string
	Namespace    string
	FunctionName string

	// Event is marshaled to JSON and delivered as the function event.
	// A nil event invokes with an empty object.
	Event interface{}

	// Version invokes a published version instead of $LATEST.
	Version string

	// Asynchronous submits the event without waiting for execution.
	Asynchronous bool
}

// InvokeResult is the outcome of a synchronous invocation. Only
// RequestID is populated for asynchronous invocations.
type InvokeResult struct {
	FunctionName string
	ReturnResult string
	RunDuration  float64
	BillDuration float64
	MemoryUsage  int64
	Log          string
	RequestID    string
}

// ReturnValue decodes the function return payload, yielding the
// parsed JSON value or the raw string.
func (r *InvokeResult) ReturnValue() interface{} {
	return decodeReturnValue(r.ReturnResult)
}

type invokeResponse struct {
	Result struct {
		InvokeResult      int     `json:"InvokeResult"`
		ErrMsg            string  `json:"ErrMsg"`
		RetMsg            string  `json:"RetMsg"`
		Log               string  `json:"Log"`
		Duration          float64 `json:"Duration"`
		BillDuration      float64 `json:"BillDuration"`
		MemUsage          int64   `json:"MemUsage"`
		FunctionRequestID string  `json:"FunctionRequestId"`
	} `json:"Result"`
}

// Invoke runs a cloud function and returns its execution outcome. A
// non-zero function exit surfaces as *InvokeError.
func (c *Client) Invoke(ctx context.Context, input InvokeInput) (*InvokeResult, error) {
	if input.FunctionName == "" {
		return nil, fmt.Errorf("invoke: function name required")
	}
	regionID := input.RegionID
	if regionID == "" {
		regionID = defaultRegion()
	}
	namespace := input.Namespace
	if namespace == "" {
		namespace = defaultNamespace()
	}

	params := map[string]interface{}{
		"FunctionName":   input.FunctionName,
		"Namespace":      namespace,
		"InvocationType": invocationSync,
	}
	if input.Asynchronous {
		params["InvocationType"] = invocationEvent
	}
	if input.Version != "" {
		params["Qualifier"] = input.Version
	}
	if input.Event != nil {
		event, err := json.Marshal(input.Event)
		if err != nil {
			return nil, fmt.Errorf("invoke: marshal event: %w", err)
		}
		params["ClientContext"] = string(event)
	}

	var response invokeResponse
	err := c.Action(ctx, regionID, "Invoke", apiVersion, params, &response)
	if err != nil {
		return nil, err
	}
	if response.Result.InvokeResult != 0 {
		return nil, &InvokeError{
			Message:   response.Result.ErrMsg,
			RequestID: response.Result.FunctionRequestID,
		}
	}

	return &InvokeResult{
		FunctionName: input.FunctionName,
		ReturnResult: response.Result.RetMsg,
		RunDuration:  response.Result.Duration,
		BillDuration: response.Result.BillDuration,
		MemoryUsage:  response.Result.MemUsage,
		Log:          response.Result.Log,
		RequestID:    response.Result.FunctionRequestID,
	}, nil
}

// EasyInvoke runs a cloud function synchronously and returns its
// decoded return value.
func (c *Client) EasyInvoke(ctx context.Context, input InvokeInput) (interface{}, error) {
	input.Asynchronous = false
	result, err := c.Invoke(ctx, input)
	if err != nil {
		return nil, err
	}
	return result.ReturnValue(), nil
}

// EasyInvokeAsync submits an asynchronous invocation and returns a
// future that resolves the execution result from the function log.
func (c *Client) EasyInvokeAsync(ctx context.Context, input InvokeInput) (*ResultFuture, error) {
	input.Asynchronous = true
	result, err := c.Invoke(ctx, input)
	if err != nil {
		return nil, err
	}
	return c.newResultFuture(input, result.RequestID), nil
}

// Routine protocol version understood by routine-dispatch functions.
const routineProtocolVersion = 1

type routinePayload struct {
	RoutineName      string      `json:"routine_name"`
	RoutineParameter interface{} `json:"routine_parameter"`
}

type routineProtocol struct {
	Version int    `json:"version"`
	Payload string `json:"payload"`
}

type routineEnvelope struct {
	Protocol routineProtocol `json:"protocol"`
}

// routineEvent builds the protocol event carrying a routine call: the
// routine name and parameter, JSON-encoded and base64-wrapped.
func routineEvent(routineName string, parameter interface{}) (routineEnvelope, error) {
	payload, err := json.Marshal(routinePayload{
		RoutineName:      routineName,
		RoutineParameter: parameter,
	})
	if err != nil {
		return routineEnvelope{}, fmt.Errorf("routine: marshal payload: %w", err)
	}
	return routineEnvelope{
		Protocol: routineProtocol{
			Version: routineProtocolVersion,
			Payload: base64.StdEncoding.EncodeToString(payload),
		},
	}, nil
}

// RoutineInvoke calls a named routine hosted by a dispatch-style cloud
// function and returns its decoded return value.
func (c *Client) RoutineInvoke(ctx context.Context, input InvokeInput, routineName string, parameter interface{}) (interface{}, error) {
	if routineName == "" {
		return nil, fmt.Errorf("routine: routine name required")
	}
	event, err := routineEvent(routineName, parameter)
	if err != nil {
		return nil, err
	}
	input.Event = event
	return c.EasyInvoke(ctx, input)
}
