package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/errbook/internal/domain"
	"github.com/phrazzld/errbook/internal/platform/logger"
	"github.com/phrazzld/errbook/internal/schema"
	"github.com/phrazzld/errbook/internal/store"
)

// QuestionStore implements store.QuestionStore on SQLite. The full record is
// kept as a versioned JSON document; subject, status, schedule and favorite
// flag are mirrored into indexed columns.
type QuestionStore struct {
	db       store.DBTX
	maxStage int
	logger   *slog.Logger
}

var _ store.QuestionStore = (*QuestionStore)(nil)

// NewQuestionStore creates a QuestionStore. maxStage bounds the stage of
// records healed on load.
func NewQuestionStore(db store.DBTX, maxStage int, logger *slog.Logger) *QuestionStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &QuestionStore{
		db:       db,
		maxStage: maxStage,
		logger:   logger.With(slog.String("component", "question_store")),
	}
}

// Save implements store.QuestionStore
func (s *QuestionStore) Save(ctx context.Context, q *domain.Question) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := q.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	data, err := schema.EncodeQuestion(q)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO questions (id, subject, status, next_review_at, is_favorite, updated_at, schema_version, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			subject = excluded.subject,
			status = excluded.status,
			next_review_at = excluded.next_review_at,
			is_favorite = excluded.is_favorite,
			updated_at = excluded.updated_at,
			schema_version = excluded.schema_version,
			data = excluded.data
	`

	_, err = s.db.ExecContext(ctx, query,
		q.ID,
		q.Subject,
		string(q.Status),
		q.NextReviewAt.UnixMilli(),
		boolToInt(q.IsFavorite),
		q.UpdatedAt.UnixMilli(),
		schema.QuestionVersion,
		string(data),
	)
	if err != nil {
		log.Error("failed to save question",
			slog.String("question_id", q.ID),
			slog.String("error", err.Error()))
		return store.NewStoreError("question", "save", "write rejected", MapError(err))
	}

	return nil
}

// Delete implements store.QuestionStore
func (s *QuestionStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return store.NewStoreError("question", "delete", "delete rejected", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrQuestionNotFound)
}

// LoadAll implements store.QuestionStore
func (s *QuestionStore) LoadAll(ctx context.Context) ([]*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject, status, next_review_at, updated_at, schema_version, data
		FROM questions
		ORDER BY rowid
	`)
	if err != nil {
		return nil, store.NewStoreError("question", "load", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	questions := make([]*domain.Question, 0)
	healed := 0
	for rows.Next() {
		var (
			fb                  schema.QuestionFallback
			nextReview, updated int64
			version             int
			data                string
		)
		if err := rows.Scan(&fb.ID, &fb.Subject, &fb.Status, &nextReview, &updated, &version, &data); err != nil {
			return nil, store.NewStoreError("question", "load", "scan failed", err)
		}
		fb.NextReviewAt = time.UnixMilli(nextReview).UTC()
		fb.UpdatedAt = time.UnixMilli(updated).UTC()

		q, wasHealed := schema.DecodeQuestion(version, []byte(data), fb, s.maxStage)
		if wasHealed {
			healed++
			log.Debug("healed stored question",
				slog.String("question_id", q.ID),
				slog.Int("stored_version", version))
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("question", "load", "row iteration failed", err)
	}

	if healed > 0 {
		log.Warn("upgraded stored questions on load",
			slog.Int("healed", healed),
			slog.Int("total", len(questions)))
	}

	return questions, nil
}

// WithTx implements store.QuestionStore
func (s *QuestionStore) WithTx(tx *sql.Tx) store.QuestionStore {
	return &QuestionStore{
		db:       tx,
		maxStage: s.maxStage,
		logger:   s.logger,
	}
}
