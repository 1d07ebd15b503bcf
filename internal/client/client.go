package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/api"
	"github.com/phrazzld/scry-fsrs/internal/config"
	"github.com/phrazzld/scry-fsrs/internal/domain"
	"github.com/phrazzld/scry-fsrs/internal/session"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

var _ session.Reviewer = (*Client)(nil)

// Client talks to the scry API on behalf of one bearer token.
type Client struct {
	baseURL *url.URL
	token   string
	userID  uuid.UUID
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Timeout is left
// as given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for breaker state changes and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserID records the user the token belongs to, so cards returned by
// FetchDueCards carry it.
func WithUserID(id uuid.UUID) Option {
	return func(c *Client) {
		c.userID = id
	}
}

// New creates a Client from cfg.
func New(cfg config.ClientConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url: unsupported scheme %q", base.Scheme)
	}
	if base.Host == "" {
		return nil, errors.New("invalid base url: missing host")
	}

	c := &Client{
		baseURL: base,
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "api_client"))

	maxFailures := cfg.BreakerFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "scry",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return c, nil
}

// isBreakerSuccess counts client errors and cancellations as successes:
// only transport failures and 5xx responses mean the server is unhealthy.
func isBreakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return !apiErr.IsServerError()
	}
	return false
}

// ListDecks returns the user's decks.
func (c *Client) ListDecks(ctx context.Context) ([]api.DeckResponse, error) {
	var out api.DecksResponse
	if err := c.do(ctx, http.MethodGet, "/api/decks", nil, &out); err != nil {
		return nil, err
	}
	return out.Decks, nil
}

// CreateDeck creates a deck.
func (c *Client) CreateDeck(ctx context.Context, name, description string) (*api.DeckResponse, error) {
	var out api.DeckResponse
	req := api.CreateDeckRequest{Name: name, Description: description}
	if err := c.do(ctx, http.MethodPost, "/api/decks", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCard adds a card to a deck.
func (c *Client) CreateCard(
	ctx context.Context,
	deckID uuid.UUID,
	front, back string,
	tags []string,
) (*api.CardResponse, error) {
	var out api.CardResponse
	req := api.CreateCardRequest{Front: front, Back: back, Tags: tags}
	if err := c.do(ctx, http.MethodPost, "/api/decks/"+deckID.String()+"/cards", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchDueCards returns the deck's due batch in the order the server ranked
// it.
func (c *Client) FetchDueCards(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	var out api.DueCardsResponse
	if err := c.do(ctx, http.MethodGet, "/api/decks/"+deckID.String()+"/due", nil, &out); err != nil {
		return nil, err
	}

	cards := make([]domain.Card, 0, len(out.Cards))
	for _, r := range out.Cards {
		card, err := r.Card(c.userID)
		if err != nil {
			return nil, fmt.Errorf("failed to decode card %s: %w", r.ID, err)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// SubmitReview implements session.Reviewer.
func (c *Client) SubmitReview(
	ctx context.Context,
	cardID uuid.UUID,
	rating domain.Rating,
	durationMs *int64,
) (session.ReviewReceipt, error) {
	if !rating.IsValid() {
		return session.ReviewReceipt{}, fmt.Errorf("%w: %d", domain.ErrInvalidRating, int(rating))
	}

	var out api.ReviewResponse
	req := api.SubmitReviewRequest{Rating: rating.String(), DurationMs: durationMs}
	if err := c.do(ctx, http.MethodPost, "/api/cards/"+cardID.String()+"/review", req, &out); err != nil {
		return session.ReviewReceipt{}, err
	}
	return session.ReviewReceipt{CardID: out.CardID, NextDue: out.NextDue, Memory: out.Memory}, nil
}

// Preview returns the server's preview of every rating for a card.
func (c *Client) Preview(ctx context.Context, cardID uuid.UUID) (*api.PreviewResponse, error) {
	var out api.PreviewResponse
	if err := c.do(ctx, http.MethodGet, "/api/cards/"+cardID.String()+"/preview", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReviewLogs returns a card's review history.
func (c *Client) ReviewLogs(ctx context.Context, cardID uuid.UUID) ([]domain.ReviewLogEntry, error) {
	var out api.ReviewLogResponse
	if err := c.do(ctx, http.MethodGet, "/api/cards/"+cardID.String()+"/reviews", nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// BreakerState reports the circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s %s", ErrCircuitOpen, method, path)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	var payload struct {
		Error   string `json:"error"`
		TraceID string `json:"trace_id"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		apiErr.TraceID = payload.TraceID
	}
	return apiErr
}
