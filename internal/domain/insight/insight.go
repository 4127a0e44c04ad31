// Package insight computes read-only projections over a set of questions:
// counts, histograms, accuracy, streaks, per-day statistics and heatmaps.
// Every function is pure. Results depend only on the records passed in and
// the reference time, whose location defines calendar-day boundaries.
package insight

import (
	"time"

	"github.com/phrazzld/errbook/internal/domain"
)

// AccuracyWindow is the look-back period of the rolling accuracy rate.
const AccuracyWindow = 30 * 24 * time.Hour

// UnspecifiedErrorType is the histogram bucket for questions without an error type.
const UnspecifiedErrorType = "unspecified"

// Summary aggregates the headline numbers of a question set.
type Summary struct {
	Total        int            `json:"total"`
	Active       int            `json:"active"`
	Archived     int            `json:"archived"`
	Mastered     int            `json:"mastered"`
	DueNow       int            `json:"dueNow"`
	BySubject    map[string]int `json:"bySubject"`
	ByErrorType  map[string]int `json:"byErrorType"`
	Accuracy30d  float64        `json:"accuracy30d"`
	AverageStage float64        `json:"averageStage"`
	Streak       int            `json:"streak"`
}

// DayStat holds the review outcome counts of one calendar day.
type DayStat struct {
	Date       string  `json:"date"`
	Reviewed   int     `json:"reviewed"`
	Remembered int     `json:"remembered"`
	Fuzzy      int     `json:"fuzzy"`
	Forgot     int     `json:"forgot"`
	Accuracy   float64 `json:"accuracy"`
}

// HeatmapCell is the review count of one calendar day.
type HeatmapCell struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Summarize computes the summary of questions at now.
// Histograms and the average stage cover active questions only.
func Summarize(questions []*domain.Question, now time.Time) Summary {
	s := Summary{
		BySubject:   make(map[string]int),
		ByErrorType: make(map[string]int),
	}

	stageSum := 0
	for _, q := range questions {
		s.Total++
		switch q.Status {
		case domain.QuestionStatusArchived:
			s.Archived++
			continue
		case domain.QuestionStatusMastered:
			s.Mastered++
			continue
		}

		s.Active++
		stageSum += q.Stage
		s.BySubject[q.Subject]++
		errorType := q.ErrorType
		if errorType == "" {
			errorType = UnspecifiedErrorType
		}
		s.ByErrorType[errorType]++
		if !q.NextReviewAt.After(now) {
			s.DueNow++
		}
	}

	if s.Active > 0 {
		s.AverageStage = float64(stageSum) / float64(s.Active)
	}
	s.Accuracy30d = Accuracy(questions, now.Add(-AccuracyWindow), now)
	s.Streak = Streak(questions, now)

	return s
}

// Accuracy returns the share of "remember" feedback among review entries in
// the half-open window (since, until]. It is 0 when the window holds no entries.
func Accuracy(questions []*domain.Question, since, until time.Time) float64 {
	total, remembered := 0, 0
	for _, q := range questions {
		for _, e := range q.ReviewHistory {
			if !e.ReviewedAt.After(since) || e.ReviewedAt.After(until) {
				continue
			}
			total++
			if e.Feedback == domain.FeedbackRemember {
				remembered++
			}
		}
	}

	if total == 0 {
		return 0
	}
	return float64(remembered) / float64(total)
}

// Streak counts consecutive calendar days, walking back from today, with at
// least one review. A day without reviews yet today does not break the streak;
// counting then starts at yesterday.
func Streak(questions []*domain.Question, now time.Time) int {
	days := make(map[string]struct{})
	for _, q := range questions {
		for _, e := range q.ReviewHistory {
			days[dayKey(e.ReviewedAt, now.Location())] = struct{}{}
		}
	}

	cursor := startOfDay(now)
	if _, ok := days[dayKey(cursor, now.Location())]; !ok {
		cursor = addDays(cursor, -1)
	}

	streak := 0
	for {
		if _, ok := days[dayKey(cursor, now.Location())]; !ok {
			return streak
		}
		streak++
		cursor = addDays(cursor, -1)
	}
}

// DailyStats returns one row per calendar day for the last n days, oldest
// first, ending with today.
func DailyStats(questions []*domain.Question, n int, now time.Time) []DayStat {
	if n <= 0 {
		return []DayStat{}
	}

	stats := make([]DayStat, n)
	index := make(map[string]int, n)
	first := addDays(startOfDay(now), -(n - 1))
	for i := 0; i < n; i++ {
		key := dayKey(addDays(first, i), now.Location())
		stats[i].Date = key
		index[key] = i
	}

	for _, q := range questions {
		for _, e := range q.ReviewHistory {
			i, ok := index[dayKey(e.ReviewedAt, now.Location())]
			if !ok {
				continue
			}
			stats[i].Reviewed++
			switch e.Feedback {
			case domain.FeedbackRemember:
				stats[i].Remembered++
			case domain.FeedbackFuzzy:
				stats[i].Fuzzy++
			case domain.FeedbackForgot:
				stats[i].Forgot++
			}
		}
	}

	for i := range stats {
		if stats[i].Reviewed > 0 {
			stats[i].Accuracy = float64(stats[i].Remembered) / float64(stats[i].Reviewed)
		}
	}

	return stats
}

// Heatmap returns weeks*7 per-day review counts, oldest first, ending with today.
func Heatmap(questions []*domain.Question, weeks int, now time.Time) []HeatmapCell {
	daily := DailyStats(questions, weeks*7, now)
	cells := make([]HeatmapCell, len(daily))
	for i, d := range daily {
		cells[i] = HeatmapCell{Date: d.Date, Count: d.Reviewed}
	}
	return cells
}

// StageDistribution counts active questions per stage. Stages outside
// [0, stages) are folded into the nearest bucket.
func StageDistribution(questions []*domain.Question, stages int) []int {
	if stages <= 0 {
		return []int{}
	}

	dist := make([]int, stages)
	for _, q := range questions {
		if !q.IsActive() {
			continue
		}
		stage := q.Stage
		if stage < 0 {
			stage = 0
		}
		if stage >= stages {
			stage = stages - 1
		}
		dist[stage]++
	}
	return dist
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func addDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, t.Location())
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.DateOnly)
}
