package srs

import (
	"time"

	"github.com/phrazzld/scry-fsrs/internal/domain"
)

// RatingPreview describes what a rating would do without applying it.
type RatingPreview struct {
	Rating       domain.Rating      `json:"rating"`
	Interval     time.Duration      `json:"-"`
	IntervalDays float64            `json:"interval_days"`
	Label        string             `json:"label"`
	State        domain.MemoryState `json:"state"`
}

// Preview returns one RatingPreview per rating, Again through Easy. It has
// no side effects; intervals are non-decreasing in rating order.
func (s *Scheduler) Preview(state domain.MemoryState, now time.Time) ([]RatingPreview, error) {
	outcomes, err := s.schedule(state, now)
	if err != nil {
		return nil, err
	}

	previews := make([]RatingPreview, 0, len(outcomes))
	for _, r := range domain.Ratings() {
		o := outcomes[r-1]
		days := o.interval.Hours() / 24
		previews = append(previews, RatingPreview{
			Rating:       r,
			Interval:     o.interval,
			IntervalDays: days,
			Label:        FormatInterval(days),
			State:        o.next,
		})
	}
	return previews, nil
}
