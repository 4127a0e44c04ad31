package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptySubject is returned when a question has no subject.
	ErrEmptySubject = errors.New("subject cannot be empty")

	// ErrEmptyTitle is returned when a note has no title.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrInvalidFeedback is returned when review feedback is not one of the known values.
	ErrInvalidFeedback = errors.New("invalid review feedback")

	// ErrInvalidStatus is returned when a question status is not valid.
	ErrInvalidStatus = errors.New("invalid question status")

	// ErrInvalidStage is returned when a stage is negative.
	ErrInvalidStage = errors.New("stage must be greater than or equal to 0")

	// ErrHistoryMismatch is returned when reviewCount disagrees with the review history.
	ErrHistoryMismatch = errors.New("review count does not match review history")

	// ErrInvalidEntityType is returned for an unknown sync entity type.
	ErrInvalidEntityType = errors.New("invalid entity type")

	// ErrInvalidOperation is returned for an unknown mutation operation.
	ErrInvalidOperation = errors.New("invalid mutation operation")
)
