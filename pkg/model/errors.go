package model

import "errors"

var (
	// ErrAuthUnavailable is returned when no usable credential can be produced.
	ErrAuthUnavailable = errors.New("auth unavailable")
	// ErrRemoteUnavailable is returned when the top-level plan listing fails.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrRemoteNodeUnreachable is returned when a node below the plan level fails.
	ErrRemoteNodeUnreachable = errors.New("remote node unreachable")
	// ErrPreconditionFailed is returned when a conditional write carries a stale version token.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrMirrorIO is returned when the mirror cannot be read or written.
	ErrMirrorIO = errors.New("mirror i/o error")
	// ErrUnknownMode is returned when a sync mode is not recognized.
	ErrUnknownMode = errors.New("unknown sync mode")
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
)
