package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrClassifier marks a malformed or missing routing decision. Fatal to the
	// turn: there is no default source to fall back to.
	ErrClassifier = errors.New("invalid routing decision")

	// ErrSourceUnavailable marks a single backend failure (timeout, non-2xx,
	// malformed payload). Recoverable while another selected source answers.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrAllSourcesUnavailable means every selected backend failed. Fatal to the turn.
	ErrAllSourcesUnavailable = errors.New("all sources unavailable")

	// ErrSchemaViolation marks a single product that does not conform to the output
	// schema. The item is dropped, the turn continues.
	ErrSchemaViolation = errors.New("product schema violation")

	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrTemporary            = errors.New("temporary failure")
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
