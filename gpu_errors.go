// gpu_errors.go - Diagnostic error taxonomy for the GPU core

package main

import (
	"errors"
	"fmt"
)

// Error kinds. None of them are visible to the guest; they only reach the
// host through the diagnostic handler.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrProtocol      = errors.New("protocol error")
	ErrBounds        = errors.New("bounds error")
)

// GPUError provides detailed context for a locally handled GPU fault
type GPUError struct {
	Kind      error  // ErrConfiguration, ErrProtocol or ErrBounds
	Operation string // Command or register access being handled
	Details   string
	Err       error // Underlying error if any
}

func (e *GPUError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gpu %s %s: %s: %v", e.Kind, e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("gpu %s %s: %s", e.Kind, e.Operation, e.Details)
}

// Is lets errors.Is match a GPUError against its kind sentinel.
func (e *GPUError) Is(target error) bool {
	return target == e.Kind
}

func (e *GPUError) Unwrap() error {
	return e.Err
}

func configError(op, format string, args ...any) *GPUError {
	return &GPUError{Kind: ErrConfiguration, Operation: op, Details: fmt.Sprintf(format, args...)}
}

func protocolError(op, format string, args ...any) *GPUError {
	return &GPUError{Kind: ErrProtocol, Operation: op, Details: fmt.Sprintf(format, args...)}
}

func boundsError(op, format string, args ...any) *GPUError {
	return &GPUError{Kind: ErrBounds, Operation: op, Details: fmt.Sprintf(format, args...)}
}
