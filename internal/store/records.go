package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/errbook/internal/domain"
)

// QuestionStore defines the interface for question persistence.
type QuestionStore interface {
	// Save inserts or replaces a question.
	// Returns validation errors wrapped in ErrInvalidEntity if the question is invalid.
	Save(ctx context.Context, q *domain.Question) error

	// Delete removes a question by id.
	// Returns ErrQuestionNotFound if it does not exist.
	Delete(ctx context.Context, id string) error

	// LoadAll returns every stored question, upgraded to the current document
	// version. Records that cannot be decoded are healed, never rejected.
	LoadAll(ctx context.Context) ([]*domain.Question, error)

	// WithTx returns a QuestionStore that uses the provided transaction.
	WithTx(tx *sql.Tx) QuestionStore
}

// NoteStore defines the interface for note persistence.
// Blocks are stored with their note and returned ordered by position.
type NoteStore interface {
	// Save inserts or replaces a note together with its block list.
	Save(ctx context.Context, n *domain.Note) error

	// Delete removes a note and its blocks.
	// Returns ErrNoteNotFound if it does not exist.
	Delete(ctx context.Context, id string) error

	// LoadAll returns every stored note with its blocks.
	LoadAll(ctx context.Context) ([]*domain.Note, error)

	// WithTx returns a NoteStore that uses the provided transaction.
	WithTx(tx *sql.Tx) NoteStore
}
