package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/phrazzld/errbook/internal/domain"
)

// NoteVersion is the version written by EncodeNote.
const NoteVersion = 2

// UntitledNote replaces a missing title on load.
const UntitledNote = "Untitled"

var noteMigrations = Table{
	1: noteV1ToV2,
}

// NoteFallback carries the indexed column values of a stored note.
type NoteFallback struct {
	ID         string
	IsFavorite bool
	IsArchived bool
	UpdatedAt  time.Time
}

// v1 stored the flags as "favorite" and "archived".
func noteV1ToV2(in Document) Document {
	doc := in.clone()
	rename(doc, "favorite", "isFavorite")
	rename(doc, "archived", "isArchived")
	defaultTo(doc, "tags", []interface{}{})
	return doc
}

// EncodeNote serialises n at NoteVersion. Blocks are stored separately and
// are left out of the document.
func EncodeNote(n *domain.Note) ([]byte, error) {
	c := *n
	c.Blocks = nil
	data, err := json.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode note %s: %w", n.ID, err)
	}
	return data, nil
}

// DecodeNote upgrades a stored note document. The returned note has an empty
// block list; callers attach blocks from their own storage.
func DecodeNote(version int, raw []byte, fallback NoteFallback) (n *domain.Note, healed bool) {
	doc, ok := parse(raw)
	healed = !ok || version < NoteVersion
	doc = noteMigrations.Upgrade(doc, version, NoteVersion)

	n = &domain.Note{
		ID:      firstNonEmpty(str(doc, "id"), fallback.ID),
		Title:   firstNonEmpty(strings.TrimSpace(str(doc, "title")), UntitledNote),
		Content: str(doc, "content"),
		Tags:    domain.NormalizeTags(stringList(doc, "tags")),
		Blocks:  []domain.Block{},
	}

	if _, present := doc["isFavorite"]; present {
		n.IsFavorite = boolean(doc, "isFavorite")
	} else {
		n.IsFavorite = fallback.IsFavorite
	}
	if _, present := doc["isArchived"]; present {
		n.IsArchived = boolean(doc, "isArchived")
	} else {
		n.IsArchived = fallback.IsArchived
	}

	createdAt, hasCreated := timestamp(doc, "createdAt")
	updatedAt, hasUpdated := timestamp(doc, "updatedAt")
	if !hasUpdated {
		updatedAt = fallback.UpdatedAt
	}
	if !hasCreated {
		createdAt = updatedAt
	}
	n.CreatedAt, n.UpdatedAt = createdAt, updatedAt

	return n, healed
}
