package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a provider call failed. The kinds are logged
// separately but collapse to one caller-visible failure outcome.
type FailureKind string

const (
	// FailTimeout means the call exceeded its hard deadline.
	FailTimeout FailureKind = "transport_timeout"
	// FailNetwork means the call failed below HTTP (DNS, connect, TLS).
	FailNetwork FailureKind = "transport_network"
	// FailHTTP means the provider answered with a non-2xx status.
	FailHTTP FailureKind = "upstream_http"
	// FailDecode means the body was not valid per the declared encoding.
	FailDecode FailureKind = "upstream_decode"
	// FailUpstream means the body carried an explicit error field.
	FailUpstream FailureKind = "upstream_error"
)

// CallError is the typed failure value for any provider call. The original
// diagnostic is preserved for operator-facing detail and never swallowed.
type CallError struct {
	// Kind classifies the failure.
	Kind FailureKind
	// HTTPStatus is set for upstream HTTP failures.
	HTTPStatus int
	// Message is the upstream error text or transport diagnostic, verbatim.
	Message string
	// Snippet is a bounded excerpt of the raw body for decode failures.
	Snippet string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *CallError) Error() string {
	switch {
	case e.Message != "" && e.HTTPStatus > 0:
		return fmt.Sprintf("provider call failed (%s, HTTP %d): %s", e.Kind, e.HTTPStatus, e.Message)
	case e.Message != "":
		return fmt.Sprintf("provider call failed (%s): %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("provider call failed (%s): %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("provider call failed (%s)", e.Kind)
	}
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *CallError) Unwrap() error {
	return e.Err
}

// AsCallError extracts a CallError from an error chain.
func AsCallError(err error) (*CallError, bool) {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr, true
	}
	return nil, false
}

// BuildError indicates malformed builder arguments. Given typed inputs it
// signals a caller bug, not an upstream condition, and is never retried.
type BuildError struct {
	// Op is the operation whose arguments were rejected.
	Op Operation
	// Reason describes the contract violation.
	Reason string
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	return fmt.Sprintf("cannot build %s request: %s", e.Op, e.Reason)
}
