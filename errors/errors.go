package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"maps"
	"sort"
	"strings"
)

// PlatformError is an error carrying a stable code and structured context.
type PlatformError interface {
	error
	// Code returns the error code.
	Code() ErrorCode
	// Context returns a copy of the attached key/value context.
	Context() map[string]interface{}
	// Retryable reports whether the operation may succeed if repeated.
	Retryable() bool
}

type platformError struct {
	code    ErrorCode
	message string
	context map[string]interface{}
	cause   error
}

// New creates a PlatformError with the given code and message.
//
//nolint:ireturn // callers work with the PlatformError interface.
func New(code ErrorCode, message string) PlatformError {
	return &platformError{code: code, message: message}
}

// Newf creates a PlatformError with a formatted message.
//
//nolint:ireturn // callers work with the PlatformError interface.
func Newf(code ErrorCode, format string, args ...interface{}) PlatformError {
	return &platformError{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message. It returns nil when err is nil.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &platformError{code: code, message: message, cause: err}
}

// WrapWithContext annotates err with a code, message and key/value context.
// It returns nil when err is nil.
func WrapWithContext(err error, code ErrorCode, message string, ctx map[string]interface{}) error {
	if err == nil {
		return nil
	}
	return &platformError{code: code, message: message, cause: err, context: maps.Clone(ctx)}
}

// WithContext returns a copy of err with the extra key/value pairs merged
// into its context. Non-platform errors are wrapped with CodeUnknown.
func WithContext(err error, ctx map[string]interface{}) error {
	if err == nil {
		return nil
	}
	var pe *platformError
	if !stderrors.As(err, &pe) {
		return &platformError{code: CodeUnknown, message: err.Error(), cause: err, context: maps.Clone(ctx)}
	}
	merged := maps.Clone(pe.context)
	if merged == nil {
		merged = make(map[string]interface{}, len(ctx))
	}
	maps.Copy(merged, ctx)
	return &platformError{code: pe.code, message: pe.message, cause: pe.cause, context: merged}
}

func (e *platformError) Error() string {
	var b strings.Builder
	b.WriteString(e.message)
	if len(e.context) > 0 {
		keys := make([]string, 0, len(e.context))
		for k := range e.context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.context[k])
		}
		b.WriteString("]")
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *platformError) Unwrap() error { return e.cause }

func (e *platformError) Code() ErrorCode { return e.code }

func (e *platformError) Context() map[string]interface{} { return maps.Clone(e.context) }

func (e *platformError) Retryable() bool { return e.code.Retryable() }

// CodeOf returns the code of the outermost PlatformError in err's chain.
// Context errors map to CodeCanceled or CodeTimeout and anything else to CodeUnknown.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var pe PlatformError
	if stderrors.As(err, &pe) {
		return pe.Code()
	}
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case stderrors.Is(err, context.Canceled):
		return CodeCanceled
	default:
		return CodeUnknown
	}
}

// ClassOf returns the classification of err's code.
func ClassOf(err error) Classification {
	return CodeOf(err).Classify()
}

// IsRetryable reports whether err carries a retryable code.
func IsRetryable(err error) bool {
	return CodeOf(err).Retryable()
}

// HasCode reports whether any error in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if pe, ok := err.(PlatformError); ok && pe.Code() == code { //nolint:errorlint // walking the chain manually
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return stderrors.As(err, target) }

// Join returns an error that wraps the given errors.
func Join(errs ...error) error { return stderrors.Join(errs...) }
