package errs

import (
	"errors"
	"fmt"
	"strings"
)

// CustomError represents a custom error with additional arguments and wrapping capability.
type CustomError struct {
	message string
	args    map[string]interface{}
	wrapped error
	user    bool
}

// New creates a new CustomError instance.
func New(message string) *CustomError {
	return &CustomError{
		message: message,
		args:    make(map[string]interface{}),
	}
}

// Error implements the error interface.
func (e *CustomError) Error() string {
	return e.fullErrorString()
}

// Message returns only the top-level message, without args and wrapped errors.
func (e *CustomError) Message() string {
	return e.message
}

// Arg adds an argument to the error.
func (e *CustomError) Arg(key string, value interface{}) *CustomError {
	e.args[key] = value
	return e
}

// User marks the message as safe to show to the end user as is.
func (e *CustomError) User() *CustomError {
	e.user = true
	return e
}

// Wrap wraps another error (can be of the same type or a standard error).
func (e *CustomError) Wrap(err error) *CustomError {
	if err != nil {
		e.wrapped = err
	}
	return e
}

// Unwrap returns the wrapped error if any.
func (e *CustomError) Unwrap() error {
	return e.wrapped
}

// UserText extracts the message to show in the chat: the first user-facing
// message in the chain, otherwise the fallback. Internal wrapper messages are
// never surfaced, even when they sit at the top of the chain.
func UserText(err error, fallback string) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if ce, ok := e.(*CustomError); ok && ce.user && ce.message != "" {
			return ce.message
		}
	}
	return fallback
}

// fullErrorString builds the error string in the desired format:
// "{msg: <message>, args: <args>, wrappedError: {<wrapped error>}}".
func (e *CustomError) fullErrorString() string {
	var builder strings.Builder

	builder.WriteString("{msg: ")
	builder.WriteString(e.message)

	if len(e.args) > 0 {
		builder.WriteString(fmt.Sprintf(", args: %v", e.args))
	}

	if e.wrapped != nil {
		wrappedErr := &CustomError{}
		if errors.As(e.wrapped, &wrappedErr) {
			builder.WriteString(fmt.Sprintf(", wrappedError: %s", wrappedErr.fullErrorString()))
		} else {
			builder.WriteString(fmt.Sprintf(", wrappedError: {%v}", e.wrapped.Error()))
		}
	}

	builder.WriteString("}")

	return builder.String()
}
