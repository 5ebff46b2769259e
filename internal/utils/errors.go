package utils

import (
	"context"
	"errors"
)

var (
	ErrInvalidURL         = errors.New("invalid URL provided")
	ErrDownloadFailed     = errors.New("download failed")
	ErrConfigurationError = errors.New("configuration error")
)

type WrappedError struct {
	Err     error
	Message string
	Context map[string]any
}

func (w *WrappedError) Error() string {
	if w.Message != "" {
		return w.Message + ": " + w.Err.Error()
	}
	return w.Err.Error()
}

func (w *WrappedError) Unwrap() error {
	return w.Err
}

func WrapError(err error, message string, ctx map[string]any) error {
	return &WrappedError{
		Err:     err,
		Message: message,
		Context: ctx,
	}
}

// RootError returns the innermost error in the chain (for user-facing messages without wrapper text).
func RootError(err error) error {
	for e := err; e != nil; e = errors.Unwrap(e) {
		err = e
	}
	return err
}

// DownloadErrorMessage returns a human-readable message for transport errors (root cause, friendly text for timeouts).
// Use for console status lines so the same message shape is shown everywhere.
func DownloadErrorMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	rootErr := RootError(err)
	return rootErr.Error()
}
