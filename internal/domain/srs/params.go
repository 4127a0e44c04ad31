package srs

import (
	"errors"
	"fmt"
)

// ErrInvalidIntervals is returned when an interval table is empty, non-positive or not ascending.
var ErrInvalidIntervals = errors.New("intervals must be positive and strictly ascending")

// DefaultIntervalsDays is the standard review ladder in days.
var DefaultIntervalsDays = []int{1, 3, 7, 14, 30, 60}

// Params defines the interval table driving stage transitions.
// Stage s waits IntervalsDays[s] days until the next review.
type Params struct {
	IntervalsDays []int
}

// NewDefaultParams creates a new Params instance with the default ladder
func NewDefaultParams() *Params {
	return &Params{
		IntervalsDays: append([]int{}, DefaultIntervalsDays...),
	}
}

// NewParams creates a new Params instance from a custom ladder
func NewParams(intervalsDays []int) (*Params, error) {
	if len(intervalsDays) == 0 {
		return nil, ErrInvalidIntervals
	}

	for i, days := range intervalsDays {
		if days <= 0 {
			return nil, fmt.Errorf("%w: stage %d has %d days", ErrInvalidIntervals, i, days)
		}
		if i > 0 && days <= intervalsDays[i-1] {
			return nil, fmt.Errorf("%w: stage %d (%d days) does not exceed stage %d", ErrInvalidIntervals, i, days, i-1)
		}
	}

	return &Params{IntervalsDays: append([]int{}, intervalsDays...)}, nil
}

// Stages returns the number of stages K.
func (p *Params) Stages() int {
	return len(p.IntervalsDays)
}

// MaxStage returns the highest valid stage index.
func (p *Params) MaxStage() int {
	return len(p.IntervalsDays) - 1
}
