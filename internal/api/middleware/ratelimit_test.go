package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ok200 = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func send(h http.Handler, userID uuid.UUID, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/decks", nil)
	req.RemoteAddr = remote
	if userID != uuid.Nil {
		req = req.WithContext(shared.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_PerUserBuckets(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }
	h := rl.Middleware(ok200)

	alice, bob := uuid.New(), uuid.New()

	assert.Equal(t, http.StatusOK, send(h, alice, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, send(h, alice, "10.0.0.1:1000").Code)

	rec := send(h, alice, "10.0.0.1:1000")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")

	assert.Equal(t, http.StatusOK, send(h, bob, "10.0.0.1:1000").Code, "buckets are per user")

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, send(h, alice, "10.0.0.1:1000").Code, "bucket refills")
}

func TestRateLimiter_AnonymousKeyedByIP(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(0.5, 1)
	h := rl.Middleware(ok200)

	assert.Equal(t, http.StatusOK, send(h, uuid.Nil, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, send(h, uuid.Nil, "10.0.0.1:2000").Code)
	assert.Equal(t, http.StatusOK, send(h, uuid.Nil, "10.0.0.2:1000").Code)
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	rl.limiterFor("ip:a")
	rl.limiterFor("ip:b")
	now = now.Add(limiterIdleTTL + time.Minute)
	rl.limiterFor("ip:c")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Len(t, rl.clients, 1)
	assert.Contains(t, rl.clients, "ip:c")
}

func TestRetryAfterSeconds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, retryAfterSeconds(20))
	assert.Equal(t, 2, retryAfterSeconds(0.5))
	assert.Equal(t, 1, retryAfterSeconds(0))
}
