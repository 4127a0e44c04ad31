package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Block is one ordered content block of a note.
type Block struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Content  string `json:"content"`
	Position int    `json:"position"`
}

// Note is a free-form study note made of ordered blocks.
type Note struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content,omitempty"`
	Tags       []string  `json:"tags"`
	IsFavorite bool      `json:"isFavorite"`
	IsArchived bool      `json:"isArchived"`
	Blocks     []Block   `json:"blocks"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// BlockDraft is a caller-supplied block without identity or position.
type BlockDraft struct {
	ID      string `json:"id,omitempty"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

// NoteDraft carries the caller-supplied fields of a new note.
type NoteDraft struct {
	Title   string       `json:"title" validate:"required"`
	Content string       `json:"content"`
	Tags    []string     `json:"tags"`
	Blocks  []BlockDraft `json:"blocks"`
}

// NotePatch is a partial update. A non-nil Blocks replaces the whole block list.
type NotePatch struct {
	Title   *string       `json:"title,omitempty"`
	Content *string       `json:"content,omitempty"`
	Tags    *[]string     `json:"tags,omitempty"`
	Blocks  *[]BlockDraft `json:"blocks,omitempty"`
}

// NewNote creates a note from a draft.
func NewNote(draft NoteDraft, now time.Time) (*Note, error) {
	n := &Note{
		ID:        uuid.New().String(),
		Title:     strings.TrimSpace(draft.Title),
		Content:   draft.Content,
		Tags:      NormalizeTags(draft.Tags),
		Blocks:    buildBlocks(draft.Blocks),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	return n, nil
}

// Validate checks the structural invariants of a note.
func (n *Note) Validate() error {
	if _, err := uuid.Parse(n.ID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidID, err)
	}

	if strings.TrimSpace(n.Title) == "" {
		return ErrEmptyTitle
	}

	for i, b := range n.Blocks {
		if b.Position != i {
			return fmt.Errorf("%w: block %s out of order", ErrValidation, b.ID)
		}
	}

	return nil
}

// ApplyPatch merges the non-nil fields of p into n and bumps UpdatedAt.
func (n *Note) ApplyPatch(p NotePatch, now time.Time) {
	if p.Title != nil {
		n.Title = strings.TrimSpace(*p.Title)
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Tags != nil {
		n.Tags = NormalizeTags(*p.Tags)
	}
	if p.Blocks != nil {
		n.Blocks = buildBlocks(*p.Blocks)
	}
	n.UpdatedAt = now
}

// Clone returns a deep copy of n.
func (n *Note) Clone() *Note {
	c := *n
	c.Tags = append([]string{}, n.Tags...)
	c.Blocks = append([]Block{}, n.Blocks...)
	return &c
}

// buildBlocks assigns ids to new blocks and positions in list order.
func buildBlocks(drafts []BlockDraft) []Block {
	blocks := make([]Block, 0, len(drafts))
	for i, d := range drafts {
		id := d.ID
		if id == "" {
			id = uuid.New().String()
		}
		kind := d.Kind
		if kind == "" {
			kind = "text"
		}
		blocks = append(blocks, Block{ID: id, Kind: kind, Content: d.Content, Position: i})
	}
	return blocks
}
