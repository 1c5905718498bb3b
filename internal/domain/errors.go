package domain

import (
	"errors"
	"fmt"
)

// ErrValidation is wrapped by every validation error of this package, so
// callers can classify them with a single errors.Is check.
var ErrValidation = errors.New("validation failed")

// ErrEmptyContent is returned when an item has no usable text.
var ErrEmptyContent = fmt.Errorf("%w: content cannot be empty", ErrValidation)

// User errors.
var (
	ErrEmptyUserID   = fmt.Errorf("%w: user ID cannot be empty", ErrValidation)
	ErrInvalidEmail  = fmt.Errorf("%w: invalid email format", ErrValidation)
	ErrEmptyEmail    = fmt.Errorf("%w: email cannot be empty", ErrValidation)
	ErrEmptyUsername = fmt.Errorf("%w: username cannot be empty", ErrValidation)
	ErrEmptyResume   = fmt.Errorf("%w: resume text cannot be empty", ErrValidation)
)

// Job errors.
var (
	ErrEmptySearchTerm = fmt.Errorf("%w: search term cannot be empty", ErrValidation)
	ErrEmptyJobTitle   = fmt.Errorf("%w: job title cannot be empty", ErrValidation)
)

// Listing and scholarship errors.
var (
	ErrEmptyListingLink  = fmt.Errorf("%w: listing link cannot be empty", ErrValidation)
	ErrEmptyScholarship  = fmt.Errorf("%w: scholarship content cannot be empty", ErrValidation)
	ErrMissingDedupInput = fmt.Errorf("%w: dedup key needs a title or link", ErrValidation)
)
