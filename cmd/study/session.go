package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/api"
	"github.com/phrazzld/scry-fsrs/internal/client"
	"github.com/phrazzld/scry-fsrs/internal/domain"
	"github.com/phrazzld/scry-fsrs/internal/domain/srs"
	"github.com/phrazzld/scry-fsrs/internal/session"
)

// errQuit ends a session early at the learner's request.
var errQuit = errors.New("quit")

// studyAPI is the part of the client a session needs.
type studyAPI interface {
	session.Reviewer
	FetchDueCards(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error)
	Preview(ctx context.Context, cardID uuid.UUID) (*api.PreviewResponse, error)
}

// studySession drives one review session over a line-oriented terminal.
type studySession struct {
	api       studyAPI
	threshold time.Duration
	in        io.Reader
	out       io.Writer
	now       func() time.Time

	// local labels the rating buttons when the server preview fails.
	local *srs.Scheduler
}

func (s *studySession) run(ctx context.Context, deckID uuid.UUID) error {
	if s.now == nil {
		s.now = time.Now
	}
	if s.local == nil {
		s.local = srs.NewDefaultScheduler()
	}

	cards, err := s.api.FetchDueCards(ctx, deckID)
	if err != nil {
		return fmt.Errorf("failed to fetch due cards: %w", err)
	}

	opts := []session.Option{session.WithClock(s.now)}
	if s.threshold > 0 {
		opts = append(opts, session.WithRequeueThreshold(s.threshold))
	}
	q := session.New(cards, s.api, opts...)
	if q.Status() == session.StatusNoCardsDue {
		s.printf("%s\n", q.Status().Message())
		return nil
	}

	lines := bufio.NewScanner(s.in)
	for {
		card, ok := q.Current()
		if !ok {
			break
		}
		err := s.reviewCard(ctx, q, card, lines)
		if errors.Is(err, errQuit) {
			s.printf("\nStopped after %d reviews, %d cards left.\n", q.Reviewed(), q.Remaining())
			return nil
		}
		if err != nil {
			return err
		}
	}

	s.printf("\n%s %d reviews.\n", q.Status().Message(), q.Reviewed())
	return nil
}

func (s *studySession) reviewCard(ctx context.Context, q *session.Queue, card domain.Card, lines *bufio.Scanner) error {
	content, err := card.DecodeContent()
	if err != nil {
		return err
	}

	s.printf("\n[%d left] %s\n", q.Remaining(), content.Front)
	s.printf("Press Enter to show the answer (q to quit) ")
	shown := s.now()
	if line, ok := readLine(lines); !ok || isQuit(line) {
		return errQuit
	}

	s.printf("%s\n", content.Back)
	s.printf("%s\n", s.ratingMenu(ctx, card))

	for {
		s.printf("Rating: ")
		line, ok := readLine(lines)
		if !ok || isQuit(line) {
			return errQuit
		}
		rating, err := domain.ParseRating(line)
		if err != nil {
			s.printf("Enter 1-4 or again, hard, good, easy.\n")
			continue
		}

		elapsed := s.now().Sub(shown).Milliseconds()
		outcome, err := q.Submit(ctx, rating, &elapsed)
		switch {
		case err == nil:
			if outcome.Requeued {
				s.printf("Again in %s, later this session.\n", formatUntil(outcome.NextDue, s.now()))
			} else {
				s.printf("Next review in %s.\n", formatUntil(outcome.NextDue, s.now()))
			}
			return nil
		case errors.Is(err, client.ErrCircuitOpen):
			return fmt.Errorf("server unavailable, stopping session: %w", err)
		default:
			s.printf("Review not saved (%v). Try again.\n", err)
		}
	}
}

// ratingMenu labels each rating with its next interval and shows the
// card's current recall probability.
func (s *studySession) ratingMenu(ctx context.Context, card domain.Card) string {
	labels := make(map[domain.Rating]string, 4)
	recall := -1

	if preview, err := s.api.Preview(ctx, card.ID); err == nil {
		for _, o := range preview.Options {
			labels[o.Rating] = o.Label
		}
		recall = preview.RetrievabilityPercent
	} else if previews, err := s.local.Preview(card.Memory, s.now()); err == nil {
		for _, p := range previews {
			labels[p.Rating] = p.Label
		}
		recall = srs.RetrievabilityPercent(card.Memory, s.now())
	}

	var b strings.Builder
	for i, r := range domain.Ratings() {
		if i > 0 {
			b.WriteString("  ")
		}
		fmt.Fprintf(&b, "%d) %s", int(r), r.DisplayName())
		if label, ok := labels[r]; ok {
			fmt.Fprintf(&b, " (%s)", label)
		}
	}
	if recall >= 0 && card.Memory.State != domain.StateNew {
		fmt.Fprintf(&b, "  recall %d%%", recall)
	}
	return b.String()
}

func (s *studySession) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

func readLine(lines *bufio.Scanner) (string, bool) {
	if !lines.Scan() {
		return "", false
	}
	return strings.TrimSpace(lines.Text()), true
}

func isQuit(line string) bool {
	return strings.EqualFold(line, "q") || strings.EqualFold(line, "quit")
}

func formatUntil(due, now time.Time) string {
	return srs.FormatInterval(due.Sub(now).Hours() / 24)
}
