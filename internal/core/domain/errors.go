package domain

import (
	"errors"
	"fmt"
)

var (
	ErrBookNotFound      = errors.New("book not found")
	ErrImportJobNotFound = errors.New("import job not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrTemporary         = errors.New("temporary failure")

	// ErrProviderUnavailable marks transport-level failures of an external
	// book data source. Strategies recover from it locally; it never reaches
	// the end user as a hard failure.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrParseFailure marks a provider response that arrived but could not be
	// decoded into the expected shape. Treated the same as an unavailable
	// provider by every strategy.
	ErrParseFailure = errors.New("parse failure")
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

// IsProviderFault reports whether err belongs to the recoverable provider
// error family that a retrieval strategy converts to "zero candidates".
func IsProviderFault(err error) bool {
	return errors.Is(err, ErrProviderUnavailable) ||
		errors.Is(err, ErrParseFailure) ||
		errors.Is(err, ErrTemporary)
}
