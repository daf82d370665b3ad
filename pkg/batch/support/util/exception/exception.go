// Package exception provides the error types shared by the sheetload engine.
// Systemic failures that abort an import are reported as *BatchError, while
// per-row problems never leave the engine as Go errors.
package exception

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

// errorRegistry maps error names used in configuration to sentinel errors.
var errorRegistry = make(map[string]error)

var registryMutex sync.RWMutex

// RegisterErrorType registers a sentinel error under a name so that
// IsErrorOfType can match it with errors.Is.
// It panics on an empty name or a nil prototype.
func RegisterErrorType(name string, prototype error) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if name == "" {
		panic("Error type name cannot be empty")
	}
	if prototype == nil {
		panic(fmt.Sprintf("Cannot register nil prototype for name: %s", name))
	}
	errorRegistry[name] = prototype
}

// IsErrorTypeRegistered reports whether name is present in the registry.
func IsErrorTypeRegistered(name string) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	_, ok := errorRegistry[name]
	return ok
}

// BatchError is an error raised by one of the engine modules.
type BatchError struct {
	// Module is where the error occurred (e.g. "importer", "writer", "config").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped cause.
	OriginalErr error
	isRetryable bool
	isSkippable bool
	// StackTrace is captured at construction for debugging.
	StackTrace string
}

// NewBatchError creates a new BatchError.
func NewBatchError(module, message string, originalErr error, isSkippable, isRetryable bool) *BatchError {
	return &BatchError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		isSkippable: isSkippable,
		StackTrace:  captureStack(),
	}
}

// NewBatchErrorf creates a BatchError from a format string.
// Trailing arguments are consumed from the end in this order when present:
// an error (the cause), a bool (retryable), a bool (skippable).
// The rest are passed to fmt.Sprintf.
//
//	NewBatchErrorf("writer", "chunk %d failed", 3, err)
//	NewBatchErrorf("store", "read %s", table, false, true, err)
func NewBatchErrorf(module, format string, a ...interface{}) *BatchError {
	var originalErr error
	isRetryable := false
	isSkippable := false
	args := a

	if n := len(args); n > 0 {
		if err, ok := args[n-1].(error); ok {
			originalErr = err
			args = args[:n-1]
		}
	}
	if n := len(args); n > 0 {
		if b, ok := args[n-1].(bool); ok {
			isRetryable = b
			args = args[:n-1]
		}
	}
	if n := len(args); n > 0 {
		if b, ok := args[n-1].(bool); ok {
			isSkippable = b
			args = args[:n-1]
		}
	}

	return &BatchError{
		Module:      module,
		Message:     fmt.Sprintf(format, args...),
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		isSkippable: isSkippable,
		StackTrace:  captureStack(),
	}
}

func captureStack() string {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Is / errors.As.
func (e *BatchError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns whether this error is retryable.
func (e *BatchError) IsRetryable() bool {
	return e.isRetryable
}

// IsSkippable returns whether this error is skippable.
func (e *BatchError) IsSkippable() bool {
	return e.isSkippable
}

// IsBatchError reports whether err, or anything it wraps, is a *BatchError.
func IsBatchError(err error) bool {
	var be *BatchError
	return errors.As(err, &be)
}

// IsErrorOfType checks err against a registered name, a message substring or a Go type name.
// The chain is walked with errors.Unwrap.
func IsErrorOfType(err error, errorTypeName string) bool {
	if err == nil {
		return false
	}

	registryMutex.RLock()
	target, ok := errorRegistry[errorTypeName]
	registryMutex.RUnlock()
	if ok && errors.Is(err, target) {
		return true
	}

	for current := err; current != nil; current = errors.Unwrap(current) {
		if strings.Contains(current.Error(), errorTypeName) {
			return true
		}
		if t := reflect.TypeOf(current); t != nil {
			if t.String() == errorTypeName || (t.Kind() == reflect.Ptr && t.Elem().String() == errorTypeName) {
				return true
			}
		}
	}
	return false
}

// ExtractErrorMessage returns the text that should be shown for err.
// A BatchError yields its innermost non-BatchError cause, or its Message when it
// wraps nothing. Anything else yields Error().
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var be *BatchError
	if errors.As(err, &be) {
		if be.OriginalErr != nil && !IsBatchError(be.OriginalErr) {
			return be.OriginalErr.Error()
		}
		if be.OriginalErr != nil {
			return ExtractErrorMessage(be.OriginalErr)
		}
		return be.Message
	}
	return err.Error()
}

func init() {
	RegisterErrorType("context.DeadlineExceeded", context.DeadlineExceeded)
	RegisterErrorType("context.Canceled", context.Canceled)
	RegisterErrorType("sql.ErrNoRows", sql.ErrNoRows)
	RegisterErrorType("sql.ErrTxDone", sql.ErrTxDone)
}
