package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Feedback is the learner's self-assessment after reviewing a question.
type Feedback string

// Possible feedback values
const (
	FeedbackRemember Feedback = "remember"
	FeedbackFuzzy    Feedback = "fuzzy"
	FeedbackForgot   Feedback = "forgot"
)

// Valid reports whether f is one of the known feedback values.
func (f Feedback) Valid() bool {
	switch f {
	case FeedbackRemember, FeedbackFuzzy, FeedbackForgot:
		return true
	default:
		return false
	}
}

// QuestionStatus represents the lifecycle state of a question.
type QuestionStatus string

// Possible question status values
const (
	QuestionStatusActive   QuestionStatus = "active"
	QuestionStatusArchived QuestionStatus = "archived"
	QuestionStatusMastered QuestionStatus = "mastered"
)

// Valid reports whether s is one of the known statuses.
func (s QuestionStatus) Valid() bool {
	switch s {
	case QuestionStatusActive, QuestionStatusArchived, QuestionStatusMastered:
		return true
	default:
		return false
	}
}

// ReviewEntry records a single application of feedback.
type ReviewEntry struct {
	ReviewedAt  time.Time `json:"reviewedAt"`
	Feedback    Feedback  `json:"feedback"`
	StageBefore int       `json:"stageBefore"`
	StageAfter  int       `json:"stageAfter"`
}

// Question is a captured question the learner answered wrongly, together with
// its review schedule and history.
type Question struct {
	ID             string         `json:"id"`
	Subject        string         `json:"subject"`
	Question       string         `json:"question,omitempty"`
	CorrectAnswer  string         `json:"correctAnswer,omitempty"`
	UserAnswer     string         `json:"userAnswer,omitempty"`
	Analysis       string         `json:"analysis,omitempty"`
	Source         string         `json:"source,omitempty"`
	ErrorType      string         `json:"errorType,omitempty"`
	Tags           []string       `json:"tags"`
	Stage          int            `json:"stage"`
	NextReviewAt   time.Time      `json:"nextReviewAt"`
	LastReviewedAt *time.Time     `json:"lastReviewedAt,omitempty"`
	ReviewHistory  []ReviewEntry  `json:"reviewHistory"`
	ReviewCount    int            `json:"reviewCount"`
	Status         QuestionStatus `json:"status"`
	IsFavorite     bool           `json:"isFavorite"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// QuestionDraft carries the caller-supplied fields of a new question.
type QuestionDraft struct {
	Subject       string   `json:"subject" validate:"required"`
	Question      string   `json:"question"`
	CorrectAnswer string   `json:"correctAnswer"`
	UserAnswer    string   `json:"userAnswer"`
	Analysis      string   `json:"analysis"`
	Source        string   `json:"source"`
	ErrorType     string   `json:"errorType"`
	Tags          []string `json:"tags"`
}

// QuestionPatch is a partial update. Nil fields are left unchanged.
type QuestionPatch struct {
	Subject       *string   `json:"subject,omitempty"`
	Question      *string   `json:"question,omitempty"`
	CorrectAnswer *string   `json:"correctAnswer,omitempty"`
	UserAnswer    *string   `json:"userAnswer,omitempty"`
	Analysis      *string   `json:"analysis,omitempty"`
	Source        *string   `json:"source,omitempty"`
	ErrorType     *string   `json:"errorType,omitempty"`
	Tags          *[]string `json:"tags,omitempty"`
}

// NewQuestion creates an active stage-0 question from a draft. The caller
// supplies the first review time computed by the scheduler.
func NewQuestion(draft QuestionDraft, now, nextReviewAt time.Time) (*Question, error) {
	q := &Question{
		ID:            uuid.New().String(),
		Subject:       strings.TrimSpace(draft.Subject),
		Question:      draft.Question,
		CorrectAnswer: draft.CorrectAnswer,
		UserAnswer:    draft.UserAnswer,
		Analysis:      draft.Analysis,
		Source:        draft.Source,
		ErrorType:     strings.TrimSpace(draft.ErrorType),
		Tags:          NormalizeTags(draft.Tags),
		Stage:         0,
		NextReviewAt:  nextReviewAt,
		ReviewHistory: []ReviewEntry{},
		Status:        QuestionStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}

	return q, nil
}

// Validate checks the structural invariants of a question.
func (q *Question) Validate() error {
	if _, err := uuid.Parse(q.ID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidID, err)
	}

	if strings.TrimSpace(q.Subject) == "" {
		return ErrEmptySubject
	}

	if q.Stage < 0 {
		return ErrInvalidStage
	}

	if q.ReviewCount != len(q.ReviewHistory) {
		return ErrHistoryMismatch
	}

	if !q.Status.Valid() {
		return ErrInvalidStatus
	}

	return nil
}

// ApplyPatch merges the non-nil fields of p into q and bumps UpdatedAt.
func (q *Question) ApplyPatch(p QuestionPatch, now time.Time) {
	if p.Subject != nil {
		q.Subject = strings.TrimSpace(*p.Subject)
	}
	if p.Question != nil {
		q.Question = *p.Question
	}
	if p.CorrectAnswer != nil {
		q.CorrectAnswer = *p.CorrectAnswer
	}
	if p.UserAnswer != nil {
		q.UserAnswer = *p.UserAnswer
	}
	if p.Analysis != nil {
		q.Analysis = *p.Analysis
	}
	if p.Source != nil {
		q.Source = *p.Source
	}
	if p.ErrorType != nil {
		q.ErrorType = strings.TrimSpace(*p.ErrorType)
	}
	if p.Tags != nil {
		q.Tags = NormalizeTags(*p.Tags)
	}
	q.UpdatedAt = now
}

// RecordReview appends a history entry and moves the question to its new schedule.
func (q *Question) RecordReview(entry ReviewEntry, nextReviewAt time.Time) {
	reviewedAt := entry.ReviewedAt
	q.ReviewHistory = append(q.ReviewHistory, entry)
	q.ReviewCount = len(q.ReviewHistory)
	q.Stage = entry.StageAfter
	q.NextReviewAt = nextReviewAt
	q.LastReviewedAt = &reviewedAt
	q.UpdatedAt = reviewedAt
}

// IsActive reports whether the question takes part in review scheduling.
func (q *Question) IsActive() bool {
	return q.Status == QuestionStatusActive
}

// Clone returns a deep copy of q.
func (q *Question) Clone() *Question {
	c := *q
	c.Tags = append([]string{}, q.Tags...)
	c.ReviewHistory = append([]ReviewEntry{}, q.ReviewHistory...)
	if q.LastReviewedAt != nil {
		t := *q.LastReviewedAt
		c.LastReviewedAt = &t
	}
	return &c
}

// NormalizeTags trims, deduplicates and sorts a tag list. It never returns nil.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
