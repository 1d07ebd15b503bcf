package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gammazero/deque"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/domain"
)

// DefaultRequeueThreshold is the interval below which a reviewed card goes
// back to the end of the queue.
const DefaultRequeueThreshold = 30 * time.Minute

var (
	// ErrSubmitInFlight is returned when Submit is called while another
	// submission is still pending.
	ErrSubmitInFlight = errors.New("a review submission is already in progress")

	// ErrSessionEmpty is returned when Submit is called with no cards left.
	ErrSessionEmpty = errors.New("no cards left in session")

	// ErrSubmitFailed wraps reviewer failures. The queue is unchanged and
	// the same card can be rated again.
	ErrSubmitFailed = errors.New("failed to submit review")
)

// ReviewReceipt is what a Reviewer reports for a persisted review.
type ReviewReceipt struct {
	CardID  uuid.UUID          `json:"card_id"`
	NextDue time.Time          `json:"next_due"`
	Memory  domain.MemoryState `json:"memory"`
}

// Reviewer persists a rating for a card and reports when it is next due.
type Reviewer interface {
	SubmitReview(ctx context.Context, cardID uuid.UUID, rating domain.Rating, durationMs *int64) (ReviewReceipt, error)
}

// Outcome describes a successful Submit.
type Outcome struct {
	CardID   uuid.UUID
	NextDue  time.Time
	Requeued bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithRequeueThreshold overrides DefaultRequeueThreshold.
func WithRequeueThreshold(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.threshold = d
		}
	}
}

// WithClock sets the time source used for the requeue decision.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// Queue is a study session. Submit calls are serialised; Current, Status,
// Remaining and Reviewed may be called at any time, including while a
// submission is pending.
type Queue struct {
	mu           sync.Mutex
	cards        deque.Deque[domain.Card]
	reviewed     int
	startedEmpty bool

	submitting atomic.Bool

	reviewer  Reviewer
	threshold time.Duration
	now       func() time.Time
}

// New creates a session over cards, in the given order. The slice is copied.
func New(cards []domain.Card, reviewer Reviewer, opts ...Option) *Queue {
	q := &Queue{
		reviewer:     reviewer,
		threshold:    DefaultRequeueThreshold,
		now:          time.Now,
		startedEmpty: len(cards) == 0,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.cards.Grow(len(cards))
	for _, c := range cards {
		q.cards.PushBack(c)
	}
	return q
}

// Current returns the card at the head of the queue.
func (q *Queue) Current() (domain.Card, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cards.Len() == 0 {
		return domain.Card{}, false
	}
	return q.cards.Front(), true
}

// Submit rates the current card. On success the card leaves the head of the
// queue and is appended again when its next due time is within the requeue
// threshold. On failure nothing changes.
func (q *Queue) Submit(ctx context.Context, rating domain.Rating, durationMs *int64) (Outcome, error) {
	if !rating.IsValid() {
		return Outcome{}, fmt.Errorf("%w: %d", domain.ErrInvalidRating, int(rating))
	}
	if !q.submitting.CompareAndSwap(false, true) {
		return Outcome{}, ErrSubmitInFlight
	}
	defer q.submitting.Store(false)

	head, ok := q.Current()
	if !ok {
		return Outcome{}, ErrSessionEmpty
	}

	receipt, err := q.reviewer.SubmitReview(ctx, head.ID, rating, durationMs)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	// Only Submit removes cards and it is serialised, so the head is unchanged.
	q.cards.PopFront()
	q.reviewed++

	if !receipt.Memory.Due.IsZero() {
		head.Memory = receipt.Memory
	}
	requeue := receipt.NextDue.Sub(q.now()) < q.threshold
	if requeue {
		q.cards.PushBack(head)
	}

	return Outcome{CardID: head.ID, NextDue: receipt.NextDue, Requeued: requeue}, nil
}

// Status reports whether the session has cards left and, if not, whether it
// ever had any.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	switch {
	case q.cards.Len() > 0:
		return StatusActive
	case q.startedEmpty:
		return StatusNoCardsDue
	default:
		return StatusComplete
	}
}

// Remaining is the number of cards left, counting requeued ones.
func (q *Queue) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cards.Len()
}

// Reviewed is the number of successful submissions.
func (q *Queue) Reviewed() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.reviewed
}

// Cards returns the queued cards, head first.
func (q *Queue) Cards() []domain.Card {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]domain.Card, q.cards.Len())
	for i := range out {
		out[i] = q.cards.At(i)
	}
	return out
}
