package srs

import (
	"sort"
	"time"

	"github.com/phrazzld/errbook/internal/domain"
)

const day = 24 * time.Hour

// clampStage forces a stage into [0, max].
func clampStage(stage, max int) int {
	if stage < 0 {
		return 0
	}
	if stage > max {
		return max
	}
	return stage
}

// calculateNextStage applies the transition rule:
//   - remember moves one stage up, capped at the last stage
//   - fuzzy moves one stage down, floored at 0
//   - forgot resets to stage 0
//
// The walk is memoryless: only the current stage and the feedback matter.
func calculateNextStage(stage int, feedback domain.Feedback, params *Params) int {
	stage = clampStage(stage, params.MaxStage())

	switch feedback {
	case domain.FeedbackRemember:
		return clampStage(stage+1, params.MaxStage())
	case domain.FeedbackFuzzy:
		return clampStage(stage-1, params.MaxStage())
	default:
		return 0
	}
}

// calculateNextReviewDate returns now plus the interval of the given stage.
// Intervals are exact multiples of 24h so the result does not shift across
// daylight-saving changes.
func calculateNextReviewDate(stage int, now time.Time, params *Params) time.Time {
	days := params.IntervalsDays[clampStage(stage, params.MaxStage())]
	return now.Add(time.Duration(days) * day)
}

// FilterDue returns the active questions whose next review is at or before ref,
// ordered by next review time. Ties are broken by id so repeated calls over the
// same set return identical results.
func FilterDue(questions []*domain.Question, ref time.Time) []*domain.Question {
	due := make([]*domain.Question, 0)
	for _, q := range questions {
		if q == nil || !q.IsActive() {
			continue
		}
		if q.NextReviewAt.After(ref) {
			continue
		}
		due = append(due, q)
	}

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].NextReviewAt.Equal(due[j].NextReviewAt) {
			return due[i].ID < due[j].ID
		}
		return due[i].NextReviewAt.Before(due[j].NextReviewAt)
	})

	return due
}
