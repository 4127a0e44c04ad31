package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/phrazzld/errbook/internal/domain"
)

// QuestionVersion is the version written by EncodeQuestion.
const QuestionVersion = 3

// UncategorizedSubject replaces a missing subject on load.
const UncategorizedSubject = "uncategorized"

var questionMigrations = Table{
	1: questionV1ToV2,
	2: questionV2ToV3,
}

// QuestionFallback carries the indexed column values of a stored question.
// They are used when the document itself lacks a field.
type QuestionFallback struct {
	ID           string
	Subject      string
	Status       string
	NextReviewAt time.Time
	UpdatedAt    time.Time
}

func questionV1ToV2(in Document) Document {
	doc := in.clone()
	rename(doc, "answer", "correctAnswer")
	rename(doc, "nextReview", "nextReviewAt")
	for _, key := range []string{"nextReviewAt", "createdAt", "updatedAt"} {
		millisToRFC3339(doc, key)
	}
	defaultTo(doc, "tags", []interface{}{})
	defaultTo(doc, "reviewHistory", []interface{}{})
	defaultTo(doc, "reviewCount", float64(0))
	return doc
}

func questionV2ToV3(in Document) Document {
	doc := in.clone()
	if _, ok := doc["status"]; !ok {
		status := domain.QuestionStatusActive
		if boolean(doc, "archived") {
			status = domain.QuestionStatusArchived
		}
		doc["status"] = string(status)
	}
	delete(doc, "archived")
	rename(doc, "favorite", "isFavorite")
	defaultTo(doc, "errorType", "")
	return doc
}

// EncodeQuestion serialises q at QuestionVersion.
func EncodeQuestion(q *domain.Question) ([]byte, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("failed to encode question %s: %w", q.ID, err)
	}
	return data, nil
}

// DecodeQuestion upgrades a stored document of the given version and builds a
// question from it. Stages are clamped to [0, maxStage]. healed reports
// whether the document was migrated or had to be rebuilt.
func DecodeQuestion(
	version int,
	raw []byte,
	fallback QuestionFallback,
	maxStage int,
) (q *domain.Question, healed bool) {
	doc, ok := parse(raw)
	healed = !ok || version < QuestionVersion
	doc = questionMigrations.Upgrade(doc, version, QuestionVersion)

	q = &domain.Question{
		ID:            firstNonEmpty(str(doc, "id"), fallback.ID),
		Subject:       firstNonEmpty(strings.TrimSpace(str(doc, "subject")), fallback.Subject, UncategorizedSubject),
		Question:      str(doc, "question"),
		CorrectAnswer: str(doc, "correctAnswer"),
		UserAnswer:    str(doc, "userAnswer"),
		Analysis:      str(doc, "analysis"),
		Source:        str(doc, "source"),
		ErrorType:     str(doc, "errorType"),
		Tags:          domain.NormalizeTags(stringList(doc, "tags")),
		Stage:         clamp(integer(doc, "stage"), maxStage),
		IsFavorite:    boolean(doc, "isFavorite"),
	}

	q.Status = domain.QuestionStatus(str(doc, "status"))
	if !q.Status.Valid() {
		q.Status = domain.QuestionStatus(fallback.Status)
	}
	if !q.Status.Valid() {
		q.Status = domain.QuestionStatusActive
	}

	createdAt, hasCreated := timestamp(doc, "createdAt")
	updatedAt, hasUpdated := timestamp(doc, "updatedAt")
	switch {
	case !hasCreated && hasUpdated:
		createdAt = updatedAt
	case !hasCreated:
		createdAt = fallback.UpdatedAt
	}
	if !hasUpdated {
		updatedAt = firstTime(fallback.UpdatedAt, createdAt)
	}
	q.CreatedAt, q.UpdatedAt = createdAt, updatedAt

	next, ok := timestamp(doc, "nextReviewAt")
	if !ok {
		next = firstTime(fallback.NextReviewAt, createdAt)
	}
	q.NextReviewAt = next

	q.ReviewHistory = decodeHistory(documents(doc, "reviewHistory"), maxStage)
	q.ReviewCount = len(q.ReviewHistory)

	if last, ok := timestamp(doc, "lastReviewedAt"); ok {
		q.LastReviewedAt = &last
	} else if n := len(q.ReviewHistory); n > 0 {
		last := q.ReviewHistory[n-1].ReviewedAt
		q.LastReviewedAt = &last
	}

	return q, healed
}

// decodeHistory keeps the entries that have a review time and known feedback.
func decodeHistory(entries []Document, maxStage int) []domain.ReviewEntry {
	history := make([]domain.ReviewEntry, 0, len(entries))
	for _, e := range entries {
		at, ok := timestamp(e, "reviewedAt")
		if !ok {
			continue
		}
		fb := domain.Feedback(str(e, "feedback"))
		if !fb.Valid() {
			continue
		}
		history = append(history, domain.ReviewEntry{
			ReviewedAt:  at,
			Feedback:    fb,
			StageBefore: clamp(integer(e, "stageBefore"), maxStage),
			StageAfter:  clamp(integer(e, "stageAfter"), maxStage),
		})
	}
	return history
}

func clamp(stage, maxStage int) int {
	if stage < 0 {
		return 0
	}
	if stage > maxStage {
		return maxStage
	}
	return stage
}

func firstTime(values ...time.Time) time.Time {
	for _, v := range values {
		if !v.IsZero() {
			return v
		}
	}
	return time.Time{}
}
