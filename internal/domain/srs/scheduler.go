package srs

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/phrazzld/scry-fsrs/internal/domain"
)

const day = 24 * time.Hour

// ReviewResult is the outcome of applying one rating to a memory state.
type ReviewResult struct {
	// State is the memory state after the review.
	State domain.MemoryState

	// Log records the review. CardID and ID are left for the caller to set.
	Log domain.ReviewLogEntry

	// Interval is the time until the card is due again.
	Interval time.Duration
}

// Scheduler applies ratings to memory states. It holds only an immutable
// copy of its parameters and is safe for concurrent use.
type Scheduler struct {
	params Params
}

// NewScheduler creates a scheduler for the given parameters.
func NewScheduler(params Params) (*Scheduler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{params: params.clone()}, nil
}

// NewDefaultScheduler creates a scheduler with the default parameters.
func NewDefaultScheduler() *Scheduler {
	return &Scheduler{params: NewDefaultParams()}
}

// Params returns a copy of the scheduler's parameters.
func (s *Scheduler) Params() Params {
	return s.params.clone()
}

// Review applies rating to state at now and returns the new state, the log
// entry describing the review and the scheduled interval. The input state
// is not modified. An invalid rating or state is rejected.
func (s *Scheduler) Review(
	state domain.MemoryState,
	rating domain.Rating,
	now time.Time,
	durationMs *int64,
) (ReviewResult, error) {
	if !rating.IsValid() {
		return ReviewResult{}, fmt.Errorf("%w: %d", domain.ErrInvalidRating, int(rating))
	}
	outcomes, err := s.schedule(state, now)
	if err != nil {
		return ReviewResult{}, err
	}

	o := outcomes[rating-1]
	result := ReviewResult{
		State:    o.next,
		Interval: o.interval,
		Log: domain.ReviewLogEntry{
			Rating:        rating,
			State:         state.State,
			ElapsedDays:   state.ElapsedDays,
			ScheduledDays: state.ScheduledDays,
			LearningSteps: state.LearningSteps,
			ReviewedAt:    now.UTC(),
		},
	}
	if durationMs != nil {
		d := *durationMs
		result.Log.DurationMs = &d
	}
	return result, nil
}

type outcome struct {
	next     domain.MemoryState
	interval time.Duration
}

// schedule computes the outcome of every rating at once so the day-scale
// intervals can be kept in rating order.
func (s *Scheduler) schedule(prev domain.MemoryState, now time.Time) ([4]outcome, error) {
	var out [4]outcome
	if !prev.State.IsValid() {
		return out, fmt.Errorf("%w: %d", domain.ErrInvalidState, int(prev.State))
	}

	now = now.UTC()
	elapsed := 0.0
	if prev.LastReview != nil {
		elapsed = math.Max(0, now.Sub(*prev.LastReview).Hours()/24)
	}

	for _, r := range domain.Ratings() {
		next := prev.Clone()
		s.updateMemory(&next, prev, r, elapsed)
		next.Reps = prev.Reps + 1
		next.ElapsedDays = elapsed
		reviewedAt := now
		next.LastReview = &reviewedAt
		out[r-1].next = next
	}

	switch prev.State {
	case domain.StateNew:
		s.enterLearning(&out, s.params.LearningSteps)
	case domain.StateLearning:
		s.advanceSteps(&out, prev, s.params.LearningSteps, now)
	case domain.StateRelearning:
		s.advanceSteps(&out, prev, s.params.RelearningSteps, now)
	case domain.StateReview:
		again := &out[domain.RatingAgain-1]
		again.next.State = domain.StateRelearning
		again.next.Lapses = prev.Lapses + 1
		again.next.LearningSteps = 1
		again.interval = s.params.RelearningSteps[0]
		s.graduate(&out, prev, now)
	}

	for i := range out {
		out[i].next.ScheduledDays = out[i].interval.Hours() / 24
		out[i].next.Due = now.Add(out[i].interval)
	}
	return out, nil
}

// updateMemory sets stability and difficulty on next for rating r.
func (s *Scheduler) updateMemory(next *domain.MemoryState, prev domain.MemoryState, r domain.Rating, elapsed float64) {
	w := &s.params.Weights

	if prev.State == domain.StateNew || prev.Stability <= 0 {
		next.Stability = initialStability(w, r)
		next.Difficulty = clampDifficulty(initialDifficulty(w, r))
		return
	}

	d := math.Max(prev.Difficulty, domain.MinDifficulty)
	if elapsed < 1 {
		next.Stability = shortTermStability(w, prev.Stability, r)
	} else {
		ret := retrievability(elapsed, prev.Stability)
		if r == domain.RatingAgain {
			next.Stability = forgetStability(w, d, prev.Stability, ret)
		} else {
			next.Stability = recallStability(w, d, prev.Stability, ret, r)
		}
	}
	next.Difficulty = nextDifficulty(w, d, r)
}

// enterLearning moves a new card to the first learning step on any rating.
func (s *Scheduler) enterLearning(out *[4]outcome, steps []time.Duration) {
	for _, r := range domain.Ratings() {
		o := &out[r-1]
		o.next.State = domain.StateLearning
		o.next.LearningSteps = 1
		o.interval = s.stepWait(steps, 1, r)
	}
}

// advanceSteps handles the Learning and Relearning phases. Again restarts
// the phase; a passing rating completes one more step and graduates the
// card once the step count is reached.
func (s *Scheduler) advanceSteps(out *[4]outcome, prev domain.MemoryState, steps []time.Duration, now time.Time) {
	again := &out[domain.RatingAgain-1]
	again.next.State = prev.State
	again.next.LearningSteps = 1
	again.interval = steps[0]

	completed := prev.LearningSteps + 1
	if completed >= len(steps) {
		s.graduate(out, prev, now)
		return
	}
	for _, r := range []domain.Rating{domain.RatingHard, domain.RatingGood, domain.RatingEasy} {
		o := &out[r-1]
		o.next.State = prev.State
		o.next.LearningSteps = completed
		o.interval = s.stepWait(steps, completed, r)
	}
}

// stepWait is the short-term wait after completing the given number of
// steps: Again waits the first step, Good the next step, Hard halfway to
// it and Easy a multiple of it.
func (s *Scheduler) stepWait(steps []time.Duration, completed int, r domain.Rating) time.Duration {
	idx := min(completed, len(steps)-1)
	prevIdx := max(idx-1, 0)
	switch r {
	case domain.RatingAgain:
		return steps[0]
	case domain.RatingHard:
		return (steps[prevIdx] + steps[idx]) / 2
	case domain.RatingGood:
		return steps[idx]
	default:
		return time.Duration(float64(steps[idx]) * s.params.EasyStepFactor)
	}
}

// graduate gives Hard, Good and Easy day-scale intervals in the Review
// phase, keeping Hard < Good < Easy below the cap.
func (s *Scheduler) graduate(out *[4]outcome, prev domain.MemoryState, now time.Time) {
	rng := rand.New(rand.NewPCG(
		uint64(now.UnixNano())^uint64(prev.Reps)<<32,
		math.Float64bits(prev.Stability)^math.Float64bits(prev.Difficulty),
	))

	passing := []domain.Rating{domain.RatingHard, domain.RatingGood, domain.RatingEasy}
	var days [3]int
	for i, r := range passing {
		days[i] = s.dayInterval(out[r-1].next.Stability, rng)
	}

	maxDays := s.params.MaximumIntervalDays
	days[0] = min(days[0], days[1])
	days[1] = min(max(days[1], days[0]+1), maxDays)
	days[2] = min(max(days[2], days[1]+1), maxDays)

	for i, r := range passing {
		o := &out[r-1]
		o.next.State = domain.StateReview
		o.next.LearningSteps = 0
		o.interval = time.Duration(days[i]) * day
	}
}

// dayInterval converts a stability into a whole-day interval within the
// configured bounds, jittered when fuzz is enabled.
func (s *Scheduler) dayInterval(stability float64, rng *rand.Rand) int {
	minDays, maxDays := s.params.MinimumIntervalDays, s.params.MaximumIntervalDays

	t := math.Min(intervalForRetention(stability, s.params.DesiredRetention), float64(maxDays))
	days := max(int(math.Round(t)), minDays)

	if s.params.EnableFuzz {
		days = fuzzDays(days, minDays, maxDays, rng)
	}
	return days
}
