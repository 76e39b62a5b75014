package state

import (
	"errors"
	"fmt"
)

// OpError represents a failed state operation.
//
// Operation failures are caller mistakes against in-memory state (unknown
// ID, duplicate ID, bad position); there is no I/O in this package, so every
// error here is deterministic and immediately diagnosable.
type OpError struct {
	// Code identifies the error category.
	Code OpErrorCode

	// Kind is the entity kind ("shot", "asset", "character", "task", ...).
	Kind string

	// ID identifies the affected entity, when known.
	ID string

	// Message is a human-readable description.
	Message string
}

// OpErrorCode categorizes state operation errors.
type OpErrorCode string

const (
	// ErrCodeNotFound indicates the referenced entity does not exist.
	ErrCodeNotFound OpErrorCode = "NOT_FOUND"

	// ErrCodeDuplicateID indicates an insert with an already-present ID.
	ErrCodeDuplicateID OpErrorCode = "DUPLICATE_ID"

	// ErrCodeInvalidPosition indicates a reorder target outside the slice.
	ErrCodeInvalidPosition OpErrorCode = "INVALID_POSITION"

	// ErrCodeInvalidTransition indicates an illegal task status change.
	ErrCodeInvalidTransition OpErrorCode = "INVALID_TRANSITION"
)

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s %s: %s", e.Code, e.Kind, e.ID, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Kind, e.Message)
}

// IsNotFound returns true if the error is a NOT_FOUND operation error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Code == ErrCodeNotFound
	}
	return false
}

// IsDuplicateID returns true if the error is a DUPLICATE_ID operation error.
func IsDuplicateID(err error) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Code == ErrCodeDuplicateID
	}
	return false
}

func notFound(kind, id string) *OpError {
	return &OpError{Code: ErrCodeNotFound, Kind: kind, ID: id, Message: "no such entity"}
}

func duplicateID(kind, id string) *OpError {
	return &OpError{Code: ErrCodeDuplicateID, Kind: kind, ID: id, Message: "id already present"}
}
