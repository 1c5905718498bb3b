package store

import (
	"errors"
	"fmt"
)

// Errors returned by every store implementation.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write would break a uniqueness rule.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. The wrapped error names the failed rule.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a transaction cannot begin or
	// commit.
	ErrTransactionFailed = errors.New("transaction failed")

	ErrUserNotFound     = fmt.Errorf("%w: user", ErrNotFound)
	ErrDocumentNotFound = fmt.Errorf("%w: document", ErrNotFound)

	// ErrDedupKeyExists is returned when a document with the same dedup key
	// is already stored in the collection. Writers treat it as a skip.
	ErrDedupKeyExists = fmt.Errorf("%w: dedup key", ErrDuplicate)
)

// IsNotFoundError reports whether err is any kind of not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is any kind of duplicate error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError adds the collection and operation to a failed write.
type StoreError struct {
	Collection string
	Operation  string
	Message    string
	Err        error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s on %s: %s: %v", e.Operation, e.Collection, e.Message, e.Err)
	}
	return fmt.Sprintf("%s on %s: %s", e.Operation, e.Collection, e.Message)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a StoreError for an operation on collection.
func NewStoreError(collection, operation, message string, err error) *StoreError {
	return &StoreError{
		Collection: collection,
		Operation:  operation,
		Message:    message,
		Err:        err,
	}
}
