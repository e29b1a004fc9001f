package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrSessionNotFound = errors.New("session not found")
	ErrProvider        = errors.New("provider failure")
	ErrTemporary       = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// IsProviderError reports whether err came from an embedding or generation backend.
// Temporary failures count as provider errors once retries are exhausted.
func IsProviderError(err error) bool {
	return errors.Is(err, ErrProvider) || errors.Is(err, ErrTemporary)
}
