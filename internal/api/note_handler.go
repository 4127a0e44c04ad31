package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/errbook/internal/api/shared"
	"github.com/phrazzld/errbook/internal/domain"
	"github.com/phrazzld/errbook/internal/store"
)

// NoteHandler handles study-note HTTP requests
type NoteHandler struct {
	notes  NoteService
	logger *slog.Logger
}

// NewNoteHandler creates a new NoteHandler
func NewNoteHandler(notes NoteService, logger *slog.Logger) *NoteHandler {
	if notes == nil || logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("notes and logger cannot be nil for NoteHandler")
	}

	return &NoteHandler{
		notes:  notes,
		logger: logger.With(slog.String("component", "note_handler")),
	}
}

// List handles GET /notes
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	notes := h.notes.List()
	shared.RespondWithJSON(w, r, http.StatusOK, NoteListResponse{Notes: notes, Count: len(notes)})
}

// Create handles POST /notes
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	n, err := h.notes.Add(r.Context(), req.draft())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create note")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, n)
}

// Get handles GET /notes/{id}
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	n, ok := h.notes.Get(id)
	if !ok {
		HandleAPIError(w, r, store.ErrNoteNotFound, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, n)
}

// Update handles PATCH /notes/{id}
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req UpdateNoteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	n, err := h.notes.Update(r.Context(), id, req.patch())
	h.respond(w, r, n, err, "Failed to update note")
}

// Delete handles DELETE /notes/{id}
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if _, ok := h.notes.Get(id); !ok {
		HandleAPIError(w, r, store.ErrNoteNotFound, "")
		return
	}

	if err := h.notes.Delete(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete note")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Archive handles POST /notes/{id}/archive
func (h *NoteHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.notes.Archive, "Failed to archive note")
}

// Restore handles POST /notes/{id}/restore
func (h *NoteHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.notes.Restore, "Failed to restore note")
}

// ToggleFavorite handles POST /notes/{id}/favorite
func (h *NoteHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.notes.ToggleFavorite, "Failed to update note")
}

func (h *NoteHandler) byID(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id string) (*domain.Note, error),
	fallback string,
) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	n, err := op(r.Context(), id)
	h.respond(w, r, n, err, fallback)
}

func (h *NoteHandler) respond(w http.ResponseWriter, r *http.Request, n *domain.Note, err error, fallback string) {
	switch {
	case err != nil:
		HandleAPIError(w, r, err, fallback)
	case n == nil:
		HandleAPIError(w, r, store.ErrNoteNotFound, "")
	default:
		shared.RespondWithJSON(w, r, http.StatusOK, n)
	}
}
