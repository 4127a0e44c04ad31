package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/errbook/internal/api/shared"
	"github.com/phrazzld/errbook/internal/domain"
	"github.com/phrazzld/errbook/internal/platform/logger"
	"github.com/phrazzld/errbook/internal/store"
)

// QuestionHandler handles wrong-question HTTP requests
type QuestionHandler struct {
	questions QuestionService
	logger    *slog.Logger
}

// NewQuestionHandler creates a new QuestionHandler
func NewQuestionHandler(questions QuestionService, logger *slog.Logger) *QuestionHandler {
	if questions == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("questions cannot be nil for QuestionHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for QuestionHandler")
	}

	return &QuestionHandler{
		questions: questions,
		logger:    logger.With(slog.String("component", "question_handler")),
	}
}

// List handles GET /questions. An optional subject query narrows the list.
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	var qs []*domain.Question
	if subject := r.URL.Query().Get("subject"); subject != "" {
		qs = h.questions.BySubject(subject)
	} else {
		qs = h.questions.List()
	}

	shared.RespondWithJSON(w, r, http.StatusOK, QuestionListResponse{Questions: qs, Count: len(qs)})
}

// Due handles GET /questions/due. The optional at query is an RFC 3339 time.
func (h *QuestionHandler) Due(w http.ResponseWriter, r *http.Request) {
	at, ok, err := queryTime(r, "at")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var qs []*domain.Question
	if ok {
		qs = h.questions.Due(at)
	} else {
		qs = h.questions.DueNow()
	}

	shared.RespondWithJSON(w, r, http.StatusOK, QuestionListResponse{Questions: qs, Count: len(qs)})
}

// Create handles POST /questions
func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateQuestionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	q, err := h.questions.Add(r.Context(), req.draft())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create question")
		return
	}

	log.Debug("question created", slog.String("question_id", q.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, q)
}

// Get handles GET /questions/{id}
func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	q, ok := h.questions.Get(id)
	if !ok {
		HandleAPIError(w, r, store.ErrQuestionNotFound, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, q)
}

// Update handles PATCH /questions/{id}
func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req UpdateQuestionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.respondChange(w, r, func(ctx context.Context) (*domain.Question, error) {
		return h.questions.Update(ctx, id, req.patch())
	}, "Failed to update question")
}

// Delete handles DELETE /questions/{id}
func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if _, ok := h.questions.Get(id); !ok {
		HandleAPIError(w, r, store.ErrQuestionNotFound, "")
		return
	}

	if err := h.questions.Delete(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete question")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Feedback handles POST /questions/{id}/feedback
func (h *QuestionHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req FeedbackRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.respondChange(w, r, func(ctx context.Context) (*domain.Question, error) {
		q, err := h.questions.ApplyFeedback(ctx, id, domain.Feedback(req.Feedback))
		if q != nil {
			log.Debug("feedback applied",
				slog.String("question_id", q.ID),
				slog.String("feedback", req.Feedback),
				slog.Int("stage", q.Stage))
		}
		return q, err
	}, "Failed to record feedback")
}

// Archive handles POST /questions/{id}/archive
func (h *QuestionHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.questions.Archive, "Failed to archive question")
}

// Restore handles POST /questions/{id}/restore
func (h *QuestionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.questions.Restore, "Failed to restore question")
}

// Master handles POST /questions/{id}/master
func (h *QuestionHandler) Master(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.questions.Master, "Failed to master question")
}

// ToggleFavorite handles POST /questions/{id}/favorite
func (h *QuestionHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.questions.ToggleFavorite, "Failed to update question")
}

func (h *QuestionHandler) byID(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id string) (*domain.Question, error),
	fallback string,
) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.respondChange(w, r, func(ctx context.Context) (*domain.Question, error) {
		return op(ctx, id)
	}, fallback)
}

// respondChange runs a change and writes the updated question. A nil
// question with no error means the id is unknown.
func (h *QuestionHandler) respondChange(
	w http.ResponseWriter,
	r *http.Request,
	change func(ctx context.Context) (*domain.Question, error),
	fallback string,
) {
	q, err := change(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, fallback)
		return
	}
	if q == nil {
		HandleAPIError(w, r, store.ErrQuestionNotFound, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, q)
}
