package qiprog

import "errors"

// Sentinel errors returned by driver operations. Wrapped errors carry
// transfer detail; callers match with errors.Is.
var (
	// ErrInvalidArgument reports a nil device handle, uninitialized or
	// closed transport state, or an invalid selector value.
	ErrInvalidArgument = errors.New("qiprog: invalid argument")

	// ErrTransfer reports any transport or protocol failure, including a
	// transfer that moved fewer bytes than requested. The protocol does not
	// distinguish a disconnected device from one that rejected the request;
	// both surface here.
	ErrTransfer = errors.New("qiprog: transfer failed")

	// ErrNotImplemented lets transports signal an operation they do not
	// support without inventing a message each time.
	ErrNotImplemented = errors.New("qiprog: not implemented")
)
