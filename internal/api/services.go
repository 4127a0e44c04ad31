package api

import (
	"context"
	"time"

	"github.com/phrazzld/errbook/internal/domain"
	"github.com/phrazzld/errbook/internal/domain/insight"
	"github.com/phrazzld/errbook/internal/syncer"
)

// QuestionService is the part of the question record store the API uses.
// Mutating methods return (nil, nil) for an unknown id.
type QuestionService interface {
	Add(ctx context.Context, draft domain.QuestionDraft) (*domain.Question, error)
	Update(ctx context.Context, id string, patch domain.QuestionPatch) (*domain.Question, error)
	Delete(ctx context.Context, id string) error
	ApplyFeedback(ctx context.Context, id string, feedback domain.Feedback) (*domain.Question, error)
	Archive(ctx context.Context, id string) (*domain.Question, error)
	Restore(ctx context.Context, id string) (*domain.Question, error)
	Master(ctx context.Context, id string) (*domain.Question, error)
	ToggleFavorite(ctx context.Context, id string) (*domain.Question, error)
	Get(id string) (*domain.Question, bool)
	List() []*domain.Question
	Due(at time.Time) []*domain.Question
	DueNow() []*domain.Question
	BySubject(subject string) []*domain.Question
}

// StatsService provides the derived views over the question set.
type StatsService interface {
	Summary() insight.Summary
	DailyStats(days int) []insight.DayStat
	Heatmap(weeks int) []insight.HeatmapCell
	StageDistribution() []int
}

// NoteService is the part of the note record store the API uses.
type NoteService interface {
	Add(ctx context.Context, draft domain.NoteDraft) (*domain.Note, error)
	Update(ctx context.Context, id string, patch domain.NotePatch) (*domain.Note, error)
	Delete(ctx context.Context, id string) error
	Archive(ctx context.Context, id string) (*domain.Note, error)
	Restore(ctx context.Context, id string) (*domain.Note, error)
	ToggleFavorite(ctx context.Context, id string) (*domain.Note, error)
	Get(id string) (*domain.Note, bool)
	List() []*domain.Note
}

// SyncService is the sync coordinator as seen by the API.
type SyncService interface {
	State() syncer.State
	Pending(ctx context.Context) (int, error)
	Flush(ctx context.Context) (syncer.Result, error)
}
