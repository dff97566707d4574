package errors

import (
	goErrors "errors"
	"fmt"
)

// New returns an error with the given message.
func New(msg string) error {
	return goErrors.New(msg)
}

// As is a passthrough to the standard library so that callers don't need to
// import both error packages.
func As(err error, target interface{}) bool {
	return goErrors.As(err, target)
}

type withContext struct {
	context string
	err     error
}

func (err withContext) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.err)
}

func (err withContext) Unwrap() error {
	return err.err
}

// WithContext annotates `err` with a description of what was being done when
// it occurred. It returns nil if `err` is nil.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return withContext{context: context, err: err}
}

// RootCause strips away the context added by WithContext and returns the
// original error.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(withContext)
		if !ok {
			return err
		}
		err = ctxErr.err
	}
}

// FriendlyError is an error whose message is suitable for showing directly to
// users.
type FriendlyError interface {
	error
	FriendlyMessage() string
}

type friendlyError struct {
	msg string
}

func (err friendlyError) Error() string {
	return err.msg
}

func (err friendlyError) FriendlyMessage() string {
	return err.msg
}

// NewFriendlyError creates an error that is printed verbatim to the user.
func NewFriendlyError(format string, args ...interface{}) error {
	return friendlyError{fmt.Sprintf(format, args...)}
}

// GetPrintableMessage returns the message that should be shown to the user
// for `err`. The second return value is false if the error isn't friendly,
// in which case the caller should add its own explanation.
func GetPrintableMessage(err error) (string, bool) {
	var friendly FriendlyError
	if As(err, &friendly) {
		return friendly.FriendlyMessage(), true
	}
	return err.Error(), false
}
