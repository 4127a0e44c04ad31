package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/phrazzld/errbook/internal/domain"
	"github.com/phrazzld/errbook/internal/domain/srs"
	"github.com/phrazzld/errbook/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = 24 * time.Hour

func TestNewQuestionServiceMissingDependencies(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := NewQuestionService(nil, f.questions, f.queue, srs.NewDefaultService())
	assert.ErrorIs(t, err, ErrMissingDependency)
	_, err = NewQuestionService(f.db, nil, f.queue, srs.NewDefaultService())
	assert.ErrorIs(t, err, ErrMissingDependency)
	_, err = NewQuestionService(f.db, f.questions, nil, srs.NewDefaultService())
	assert.ErrorIs(t, err, ErrMissingDependency)
	_, err = NewQuestionService(f.db, f.questions, f.queue, nil)
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestQuestionAddAndReload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	svc := f.questionService(t)

	q, err := svc.Add(ctx, domain.QuestionDraft{
		Subject:       "math",
		Question:      "2+2?",
		CorrectAnswer: "4",
		UserAnswer:    "5",
		ErrorType:     "careless",
		Tags:          []string{"arith", "arith", " basics "},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, q.Stage)
	assert.Equal(t, t0.Add(day), q.NextReviewAt)
	assert.Equal(t, t0, q.CreatedAt)
	assert.Equal(t, t0, q.UpdatedAt)
	assert.Equal(t, domain.QuestionStatusActive, q.Status)
	assert.Equal(t, []string{"arith", "basics"}, q.Tags)
	assert.Empty(t, q.ReviewHistory)

	reloaded := f.questionService(t)
	got, ok := reloaded.Get(q.ID)
	require.True(t, ok)
	assert.Equal(t, q, got)
}

func TestQuestionAddQueuesMutationInSameTransaction(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	svc := f.questionService(t)

	q, err := svc.Add(ctx, domain.QuestionDraft{Subject: "physics"})
	require.NoError(t, err)

	items, err := f.queue.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.EntityTypeQuestion, items[0].EntityType)
	assert.Equal(t, domain.OperationCreate, items[0].Operation)
	assert.Equal(t, q.ID, items[0].RecordID)
	assert.Equal(t, t0, items[0].EnqueuedAt)

	var payload domain.Question
	require.NoError(t, json.Unmarshal(items[0].Payload, &payload))
	assert.Equal(t, q.ID, payload.ID)
	assert.Equal(t, "physics", payload.Subject)

	require.Len(t, f.handler.events, 1)
	assert.Equal(t, events.RecordMutated{
		EntityType: "wrong_question",
		Operation:  "create",
		RecordID:   q.ID,
		Queued:     true,
	}, f.handler.events[0])
}

func TestQuestionUntrackedSkipsQueue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	svc := f.questionService(t, WithSyncTracking(false))

	q, err := svc.Add(ctx, domain.QuestionDraft{Subject: "chem"})
	require.NoError(t, err)
	_, err = svc.ToggleFavorite(ctx, q.ID)
	require.NoError(t, err)

	assert.Zero(t, f.queueCount(t))
	assert.False(t, f.handler.events[0].Queued)
}

func TestQuestionAddRejectsEmptySubject(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := f.questionService(t)

	_, err := svc.Add(context.Background(), domain.QuestionDraft{Subject: "  "})
	assert.ErrorIs(t, err, domain.ErrEmptySubject)
	assert.Empty(t, svc.List())
	assert.Zero(t, f.queueCount(t))
}

func TestQuestionFeedbackScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	svc := f.questionService(t)

	q, err := svc.Add(ctx, domain.QuestionDraft{Subject: "math"})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(day), q.NextReviewAt)

	f.clock.Advance(2 * day)
	q, err = svc.ApplyFeedback(ctx, q.ID, domain.FeedbackRemember)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Stage)
	assert.Equal(t, t0.Add(5*day), q.NextReviewAt)

	q, err = svc.ApplyFeedback(ctx, q.ID, domain.FeedbackForgot)
	require.NoError(t, err)
	assert.Equal(t, 0, q.Stage)
	assert.Equal(t, t0.Add(3*day), q.NextReviewAt)

	require.Len(t, q.ReviewHistory, 2)
	assert.Equal(t, 2, q.ReviewCount)
	assert.Equal(t, domain.ReviewEntry{
		ReviewedAt: t0.Add(2 * day), Feedback: domain.FeedbackRemember, StageBefore: 0, StageAfter: 1,
	}, q.ReviewHistory[0])
	assert.Equal(t, domain.ReviewEntry{
		ReviewedAt: t0.Add(2 * day), Feedback: domain.FeedbackForgot, StageBefore: 1, StageAfter: 0,
	}, q.ReviewHistory[1])
	require.NotNil(t, q.LastReviewedAt)
	assert.Equal(t, t0.Add(2*day), *q.LastReviewedAt)

	// create plus two updates
	assert.Equal(t, 3, f.queueCount(t))

	reloaded := f.questionService(t)
	got, ok := reloaded.Get(q.ID)
	require.True(t, ok)
	assert.Equal(t, q, got)
}

func TestQuestionInvalidFeedback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	svc := f.questionService(t)
	q, err := svc.Add(ctx, domain.QuestionDraft{Subject: "math"})
	require.NoError(t, err)

	_, err = svc.ApplyFeedback(ctx, q.ID, "meh")
	assert.ErrorIs(t, err, domain.ErrInvalidFeedback)

	got, _ := svc.Get(q.ID)
	assert.Empty(t, got.ReviewHistory)
}

func TestQuestionUnknownIDIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	svc := f.questionService(t)
	subject := "x"

	tests := []struct {
		name string
		call func() (*domain.Question, error)
	}{
		{"update", func() (*domain.Question, error) {
			return svc.Update(ctx, "missing", domain.QuestionPatch{Subject: &subject})
		}},
		{"feedback", func() (*domain.Question, error) {
			return svc.ApplyFeedback(ctx, "missing", domain.FeedbackRemember)
		}},
		{"archive", func() (*domain.Question, error) { return svc.Archive(ctx, "missing") }},
		{"restore", func() (*domain.Question, error) { return svc.Restore(ctx, "missing") }},
		{"master", func() (*domain.Question, error) { return svc.Master(ctx, "missing") }},
		{"favorite", func() (*domain.Question, error) { return svc.ToggleFavorite(ctx, "missing") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := tt.call()
			assert.NoError(t, err)
			assert.Nil(t, q)
		})
	}

	assert.NoError(t, svc.Delete(ctx, "missing"))
	assert.Zero(t, f.queueCount(t))
	assert.Empty(t, f.handler.events)
}

func TestQuestionUpdateAndStatusChanges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	svc := f.questionService(t)
	q, err := svc.Add(ctx, domain.QuestionDraft{Subject: "math", Tags: []string{"a"}})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	analysis := "sign error"
	tags := []string{"b", "a"}
	q, err = svc.Update(ctx, q.ID, domain.QuestionPatch{Analysis: &analysis, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "sign error", q.Analysis)
	assert.Equal(t, []string{"a", "b"}, q.Tags)
	assert.Equal(t, "math", q.Subject)
	assert.Equal(t, t0.Add(time.Hour), q.UpdatedAt)

	empty := " "
	_, err = svc.Update(ctx, q.ID, domain.QuestionPatch{Subject: &empty})
	assert.ErrorIs(t, err, domain.ErrEmptySubject)

	q, err = svc.Archive(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuestionStatusArchived, q.Status)

	q, err = svc.Master(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuestionStatusMastered, q.Status)

	q, err = svc.Restore(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuestionStatusActive, q.Status)

	q, err = svc.ToggleFavorite(ctx, q.ID)
	require.NoError(t, err)
	assert.True(t, q.IsFavorite)
	q, err = svc.ToggleFavorite(ctx, q.ID)
	require.NoError(t, err)
	assert.False(t, q.IsFavorite)
}

func TestQuestionDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	svc := f.questionService(t)
	q, err := svc.Add(ctx, domain.QuestionDraft{Subject: "math"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, q.ID))
	_, ok := svc.Get(q.ID)
	assert.False(t, ok)

	items, err := f.queue.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, domain.OperationDelete, items[1].Operation)
	assert.Equal(t, "null", string(items[1].Payload))

	reloaded := f.questionService(t)
	assert.Empty(t, reloaded.List())
}

func TestQuestionStorageFailureLeavesMemoryUnchanged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	svc := f.questionService(t)
	q, err := svc.Add(ctx, domain.QuestionDraft{Subject: "math"})
	require.NoError(t, err)
	before := len(f.handler.events)

	require.NoError(t, f.db.Close())

	_, err = svc.Add(ctx, domain.QuestionDraft{Subject: "bio"})
	assert.Error(t, err)
	_, err = svc.ApplyFeedback(ctx, q.ID, domain.FeedbackRemember)
	assert.Error(t, err)
	assert.Error(t, svc.Delete(ctx, q.ID))

	list := svc.List()
	require.Len(t, list, 1)
	assert.Equal(t, q, list[0])
	assert.Len(t, f.handler.events, before)
}

func TestQuestionReturnedCopiesAreIsolated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	svc := f.questionService(t)
	q, err := svc.Add(ctx, domain.QuestionDraft{Subject: "math", Tags: []string{"a"}})
	require.NoError(t, err)

	q.Tags[0] = "mutated"
	q.Subject = "mutated"

	got, _ := svc.Get(q.ID)
	assert.Equal(t, "math", got.Subject)
	assert.Equal(t, []string{"a"}, got.Tags)
}

func TestQuestionQueries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	svc := f.questionService(t)

	a, err := svc.Add(ctx, domain.QuestionDraft{Subject: "math"})
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	b, err := svc.Add(ctx, domain.QuestionDraft{Subject: "physics"})
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	c, err := svc.Add(ctx, domain.QuestionDraft{Subject: "math"})
	require.NoError(t, err)

	_, err = svc.Archive(ctx, b.ID)
	require.NoError(t, err)

	due := svc.Due(t0.Add(day + 2*time.Hour))
	require.Len(t, due, 2)
	assert.Equal(t, a.ID, due[0].ID)
	assert.Equal(t, c.ID, due[1].ID)
	assert.Equal(t, due, svc.Due(t0.Add(day+2*time.Hour)))
	assert.Empty(t, svc.Due(t0))
	assert.Empty(t, svc.DueNow())

	math := svc.BySubject("math")
	require.Len(t, math, 2)
	assert.Equal(t, c.ID, math[0].ID)
	assert.Equal(t, a.ID, math[1].ID)

	list := svc.List()
	require.Len(t, list, 3)
	assert.Equal(t, c.ID, list[0].ID)

	summary := svc.Summary()
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Active)
	assert.Equal(t, 1, summary.Archived)
	assert.Equal(t, map[string]int{"math": 2}, summary.BySubject)

	dist := svc.StageDistribution()
	assert.Equal(t, []int{2, 0, 0, 0, 0, 0}, dist)

	assert.Len(t, svc.DailyStats(7), 7)
	assert.Len(t, svc.Heatmap(2), 14)
}
