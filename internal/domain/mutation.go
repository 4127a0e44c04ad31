package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntityType names a sync-tracked entity kind. It is also the "type" of a
// remote batch.
type EntityType string

// Known entity types
const (
	EntityTypeQuestion EntityType = "wrong_question"
	EntityTypeNote     EntityType = "note"
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntityTypeQuestion, EntityTypeNote:
		return true
	default:
		return false
	}
}

// Operation is the kind of change a mutation carries.
type Operation string

// Possible operations
const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Valid reports whether o is a known operation.
func (o Operation) Valid() bool {
	switch o {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	default:
		return false
	}
}

// Mutation is a locally committed change that has not yet been acknowledged
// by the remote endpoint.
type Mutation struct {
	ID         string          `json:"id"`
	EntityType EntityType      `json:"entityType"`
	Operation  Operation       `json:"operation"`
	RecordID   string          `json:"recordId"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
	RetryCount int             `json:"retryCount"`
}

// NewMutation builds a queue item for a change to record recordID. A nil
// payload is encoded as JSON null.
func NewMutation(
	entityType EntityType,
	op Operation,
	recordID string,
	payload interface{},
	now time.Time,
) (*Mutation, error) {
	if !entityType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEntityType, entityType)
	}
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOperation, op)
	}
	if recordID == "" {
		return nil, fmt.Errorf("%w: empty record id", ErrInvalidID)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mutation payload: %w", err)
	}

	return &Mutation{
		ID:         uuid.New().String(),
		EntityType: entityType,
		Operation:  op,
		RecordID:   recordID,
		Payload:    data,
		EnqueuedAt: now,
	}, nil
}
