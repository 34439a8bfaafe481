package datamodel

import "errors"

// Errors returned by cluster operations. The protocol responder maps
// these onto interaction-model status codes at the command boundary.
var (
	// ErrUnsupportedAttribute indicates the attribute is not supported.
	ErrUnsupportedAttribute = errors.New("unsupported attribute")

	// ErrUnsupportedWrite indicates the attribute does not support writes.
	ErrUnsupportedWrite = errors.New("unsupported write")

	// ErrUnsupportedCommand indicates the command is not supported.
	ErrUnsupportedCommand = errors.New("unsupported command")

	// ErrInvalidCommand indicates a malformed command payload.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrConstraintError indicates an input violating a data constraint.
	ErrConstraintError = errors.New("constraint error")

	// ErrBusy indicates the cluster cannot serve the request right now.
	ErrBusy = errors.New("resource busy")

	// ErrResourceExhausted indicates insufficient resources.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrInvalidInState indicates the operation is invalid in the
	// current state.
	ErrInvalidInState = errors.New("invalid in current state")
)
