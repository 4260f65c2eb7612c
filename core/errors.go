// Package core implements the base client shared by every Tencent
// Cloud product client: request signing, the Cloud API response
// envelope, retries and proxy handling.
package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that an operation referenced a project or
	// resource that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExisted reports that a project or resource with the same
	// identity already exists.
	ErrExisted = errors.New("already exists")

	// ErrOccupied reports that a project or resource is in use and
	// cannot be altered.
	ErrOccupied = errors.New("occupied")
)

// RequestError wraps a transport-level failure: the HTTP request never
// produced a Cloud API response. Requests failing this way are safe to
// retry.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("cloud api request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ResponseError reports a Cloud API HTTP response that is not a valid
// action envelope, usually a server-side failure.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("cloud api response unexpected: status %d: %s", e.StatusCode, e.Message)
}

// ActionError reports a request that reached the Cloud API and was
// answered, but whose action failed. Code carries the provider error
// identifier (for example ResourceNotFound.Function).
type ActionError struct {
	Action    string
	Code      string
	Message   string
	RequestID string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %s error: error-id: %s; error-message: %s; request-id: %s",
		e.Action, e.Code, e.Message, e.RequestID)
}

// ActionResultError reports a successful action whose response payload
// is missing fields the caller depends on.
type ActionResultError struct {
	Message string
}

func (e *ActionResultError) Error() string {
	return "action result unexpected: " + e.Message
}
