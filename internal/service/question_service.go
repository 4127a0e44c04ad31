package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/errbook/internal/domain"
	"github.com/phrazzld/errbook/internal/domain/insight"
	"github.com/phrazzld/errbook/internal/domain/srs"
	"github.com/phrazzld/errbook/internal/platform/logger"
	"github.com/phrazzld/errbook/internal/store"
)

// QuestionService is the local record store for wrong questions.
type QuestionService struct {
	questions store.QuestionStore
	scheduler srs.Service
	writer    *recordWriter
	clock     func() time.Time
	logger    *slog.Logger

	mu      sync.RWMutex
	records map[string]*domain.Question
}

// NewQuestionService creates a QuestionService. Call Load before serving reads.
func NewQuestionService(
	db *sql.DB,
	questions store.QuestionStore,
	queue store.MutationQueue,
	scheduler srs.Service,
	opts ...Option,
) (*QuestionService, error) {
	switch {
	case db == nil:
		return nil, fmt.Errorf("%w: db", ErrMissingDependency)
	case questions == nil:
		return nil, fmt.Errorf("%w: question store", ErrMissingDependency)
	case queue == nil:
		return nil, fmt.Errorf("%w: mutation queue", ErrMissingDependency)
	case scheduler == nil:
		return nil, fmt.Errorf("%w: scheduler", ErrMissingDependency)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.With(slog.String("component", "question_service"))

	return &QuestionService{
		questions: questions,
		scheduler: scheduler,
		writer: &recordWriter{
			db:      db,
			queue:   queue,
			entity:  domain.EntityTypeQuestion,
			tracked: o.tracked,
			emitter: o.emitter,
			logger:  log,
		},
		clock:   o.clock,
		logger:  log,
		records: make(map[string]*domain.Question),
	}, nil
}

// Load replaces the in-memory set with every persisted question.
func (s *QuestionService) Load(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	loaded, err := s.questions.LoadAll(ctx)
	if err != nil {
		return NewServiceError("question", "load", "failed to read questions", err)
	}

	records := make(map[string]*domain.Question, len(loaded))
	for _, q := range loaded {
		records[q.ID] = q
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	log.Info("loaded questions", slog.Int("count", len(records)))
	return nil
}

// Add captures a new question at stage 0 and schedules its first review.
func (s *QuestionService) Add(ctx context.Context, draft domain.QuestionDraft) (*domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	_, next := s.scheduler.InitialReview(now)

	q, err := domain.NewQuestion(draft, now, next)
	if err != nil {
		return nil, NewServiceError("question", "add", "invalid question", err)
	}

	if err := s.save(ctx, domain.OperationCreate, q, now); err != nil {
		return nil, NewServiceError("question", "add", "failed to save question", err)
	}

	s.records[q.ID] = q
	return q.Clone(), nil
}

// Update merges the non-nil fields of patch into the question.
func (s *QuestionService) Update(
	ctx context.Context,
	id string,
	patch domain.QuestionPatch,
) (*domain.Question, error) {
	return s.modify(ctx, "update", id, func(q *domain.Question, now time.Time) error {
		q.ApplyPatch(patch, now)
		return nil
	})
}

// Delete removes the question permanently.
func (s *QuestionService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		logger.FromContextOrDefault(ctx, s.logger).Debug("delete of unknown question ignored",
			slog.String("question_id", id))
		return nil
	}

	now := s.clock()
	err := s.writer.commit(ctx, domain.OperationDelete, id, nil, now,
		func(ctx context.Context, tx *sql.Tx) error {
			return s.questions.WithTx(tx).Delete(ctx, id)
		})
	if err != nil {
		return NewServiceError("question", "delete", "failed to delete question", err)
	}

	delete(s.records, id)
	return nil
}

// ApplyFeedback records a review and moves the question along the interval ladder.
func (s *QuestionService) ApplyFeedback(
	ctx context.Context,
	id string,
	feedback domain.Feedback,
) (*domain.Question, error) {
	if !feedback.Valid() {
		return nil, NewServiceError("question", "feedback", string(feedback), domain.ErrInvalidFeedback)
	}

	return s.modify(ctx, "feedback", id, func(q *domain.Question, now time.Time) error {
		tr, err := s.scheduler.NextReview(q.Stage, feedback, now)
		if err != nil {
			return err
		}
		q.RecordReview(tr.Entry(feedback, now), tr.NextReviewAt)
		return nil
	})
}

// Archive hides the question from review scheduling.
func (s *QuestionService) Archive(ctx context.Context, id string) (*domain.Question, error) {
	return s.setStatus(ctx, "archive", id, domain.QuestionStatusArchived)
}

// Restore returns an archived or mastered question to active review.
func (s *QuestionService) Restore(ctx context.Context, id string) (*domain.Question, error) {
	return s.setStatus(ctx, "restore", id, domain.QuestionStatusActive)
}

// Master marks the question as learned.
func (s *QuestionService) Master(ctx context.Context, id string) (*domain.Question, error) {
	return s.setStatus(ctx, "master", id, domain.QuestionStatusMastered)
}

// ToggleFavorite flips the favorite flag.
func (s *QuestionService) ToggleFavorite(ctx context.Context, id string) (*domain.Question, error) {
	return s.modify(ctx, "favorite", id, func(q *domain.Question, now time.Time) error {
		q.IsFavorite = !q.IsFavorite
		q.UpdatedAt = now
		return nil
	})
}

func (s *QuestionService) setStatus(
	ctx context.Context,
	op, id string,
	status domain.QuestionStatus,
) (*domain.Question, error) {
	return s.modify(ctx, op, id, func(q *domain.Question, now time.Time) error {
		q.Status = status
		q.UpdatedAt = now
		return nil
	})
}

// modify applies fn to a copy of the question and commits it. The stored
// pointer is replaced only after the commit succeeds.
func (s *QuestionService) modify(
	ctx context.Context,
	op, id string,
	fn func(q *domain.Question, now time.Time) error,
) (*domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[id]
	if !ok {
		logger.FromContextOrDefault(ctx, s.logger).Debug("change to unknown question ignored",
			slog.String("operation", op),
			slog.String("question_id", id))
		return nil, nil
	}

	now := s.clock()
	next := current.Clone()
	if err := fn(next, now); err != nil {
		return nil, NewServiceError("question", op, "failed to apply change", err)
	}
	if err := next.Validate(); err != nil {
		return nil, NewServiceError("question", op, "invalid question", err)
	}

	if err := s.save(ctx, domain.OperationUpdate, next, now); err != nil {
		return nil, NewServiceError("question", op, "failed to save question", err)
	}

	s.records[id] = next
	return next.Clone(), nil
}

func (s *QuestionService) save(ctx context.Context, op domain.Operation, q *domain.Question, now time.Time) error {
	return s.writer.commit(ctx, op, q.ID, q, now, func(ctx context.Context, tx *sql.Tx) error {
		return s.questions.WithTx(tx).Save(ctx, q)
	})
}

// Get returns a copy of the question with the given id.
func (s *QuestionService) Get(id string) (*domain.Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.records[id]
	if !ok {
		return nil, false
	}
	return q.Clone(), true
}

// List returns copies of all questions, newest first.
func (s *QuestionService) List() []*domain.Question {
	return cloneQuestions(s.sorted())
}

// Due returns the active questions whose review time is at or before at.
func (s *QuestionService) Due(at time.Time) []*domain.Question {
	return cloneQuestions(srs.FilterDue(s.snapshot(), at))
}

// DueNow is Due at the current time.
func (s *QuestionService) DueNow() []*domain.Question {
	return s.Due(s.clock())
}

// BySubject returns the questions filed under subject, newest first.
func (s *QuestionService) BySubject(subject string) []*domain.Question {
	out := make([]*domain.Question, 0)
	for _, q := range s.sorted() {
		if q.Subject == subject {
			out = append(out, q.Clone())
		}
	}
	return out
}

// Summary aggregates the record set at the current time.
func (s *QuestionService) Summary() insight.Summary {
	return insight.Summarize(s.snapshot(), s.clock())
}

// DailyStats returns one row per calendar day for the last days days.
func (s *QuestionService) DailyStats(days int) []insight.DayStat {
	return insight.DailyStats(s.snapshot(), days, s.clock())
}

// Heatmap returns weeks*7 per-day review counts ending today.
func (s *QuestionService) Heatmap(weeks int) []insight.HeatmapCell {
	return insight.Heatmap(s.snapshot(), weeks, s.clock())
}

// StageDistribution counts active questions per stage.
func (s *QuestionService) StageDistribution() []int {
	return insight.StageDistribution(s.snapshot(), s.scheduler.Stages())
}

// snapshot returns the current record pointers. Stored records are never
// mutated in place, so readers may use them without holding the lock.
func (s *QuestionService) snapshot() []*domain.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Question, 0, len(s.records))
	for _, q := range s.records {
		out = append(out, q)
	}
	return out
}

func (s *QuestionService) sorted() []*domain.Question {
	qs := s.snapshot()
	sort.Slice(qs, func(i, j int) bool {
		if !qs[i].CreatedAt.Equal(qs[j].CreatedAt) {
			return qs[i].CreatedAt.After(qs[j].CreatedAt)
		}
		return qs[i].ID < qs[j].ID
	})
	return qs
}

func cloneQuestions(qs []*domain.Question) []*domain.Question {
	out := make([]*domain.Question, len(qs))
	for i, q := range qs {
		out[i] = q.Clone()
	}
	return out
}
