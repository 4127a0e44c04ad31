package srs

import (
	"time"

	"github.com/phrazzld/errbook/internal/domain"
)

// Transition is the outcome of applying feedback at a point in time.
type Transition struct {
	StageBefore  int
	StageAfter   int
	NextReviewAt time.Time
}

// Entry converts the transition into a review history entry.
func (t *Transition) Entry(feedback domain.Feedback, reviewedAt time.Time) domain.ReviewEntry {
	return domain.ReviewEntry{
		ReviewedAt:  reviewedAt,
		Feedback:    feedback,
		StageBefore: t.StageBefore,
		StageAfter:  t.StageAfter,
	}
}

// Service defines the interface for review scheduling operations
type Service interface {
	// InitialReview returns the stage and first review time of a newly captured question.
	InitialReview(now time.Time) (int, time.Time)

	// NextReview computes the stage transition for the given feedback
	NextReview(stage int, feedback domain.Feedback, now time.Time) (*Transition, error)

	// Stages returns the number of stages in the interval table.
	Stages() int
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new scheduler with the default ladder
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scheduler with custom parameters
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// InitialReview implements the Service interface
func (s *defaultService) InitialReview(now time.Time) (int, time.Time) {
	return 0, calculateNextReviewDate(0, now, s.params)
}

// NextReview implements the Service interface
func (s *defaultService) NextReview(
	stage int,
	feedback domain.Feedback,
	now time.Time,
) (*Transition, error) {
	if !feedback.Valid() {
		return nil, domain.ErrInvalidFeedback
	}

	before := clampStage(stage, s.params.MaxStage())
	after := calculateNextStage(before, feedback, s.params)

	return &Transition{
		StageBefore:  before,
		StageAfter:   after,
		NextReviewAt: calculateNextReviewDate(after, now, s.params),
	}, nil
}

// Stages implements the Service interface
func (s *defaultService) Stages() int {
	return s.params.Stages()
}
