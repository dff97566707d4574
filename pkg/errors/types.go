package errors

import (
	"fmt"
)

// ErrSessionBusy is returned when an operation is started on a remote
// session while a command's output is still being read.
var ErrSessionBusy = New("remote session already has an operation in flight")

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// ConnectionError is a transport or authentication failure while talking to
// a remote host.
type ConnectionError struct {
	Host string
	Err  error
}

func (err ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %s", err.Host, err.Err)
}

func (err ConnectionError) Unwrap() error {
	return err.Err
}

// PathKindError means the caller passed the wrong kind of path, such as a
// file where a directory was required, or a relative path where an absolute
// one was required. It is always raised before any remote interaction.
type PathKindError struct {
	Path   string
	Reason string
}

func (err PathKindError) Error() string {
	return fmt.Sprintf("%q %s", err.Path, err.Reason)
}

// TransferError is a failed create, put, get, or enumeration call. It aborts
// the rest of the sync.
type TransferError struct {
	Op   string
	Path string
	Err  error
}

func (err TransferError) Error() string {
	return fmt.Sprintf("%s %s: %s", err.Op, err.Path, err.Err)
}

func (err TransferError) Unwrap() error {
	return err.Err
}
