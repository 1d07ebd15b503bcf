package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-fsrs/internal/api"
	"github.com/phrazzld/scry-fsrs/internal/config"
	"github.com/phrazzld/scry-fsrs/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "thisisasecretkeythatis32charslong!!"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:               8080,
			LogLevel:           "debug",
			ShutdownTimeout:    time.Second,
			RateLimitPerSecond: 100,
			RateLimitBurst:     3,
		},
		Database: config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"},
		Auth:     config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 5},
		Session:  config.SessionConfig{BatchSize: 20, RequeueThreshold: 30 * time.Minute},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *application {
	t.Helper()
	log, _ := logger.NewTestLogger(t)
	app, err := openApplication(context.Background(), cfg, log, true)
	require.NoError(t, err)
	t.Cleanup(app.cleanup)
	return app
}

func request(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_EndToEnd(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, testConfig())
	router := app.setupRouter()

	token, err := app.jwtService.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	rec := request(t, router, http.MethodPost, "/api/decks", token, `{"name":"Spanish"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))

	var deck api.DeckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deck))

	rec = request(t, router, http.MethodPost, "/api/decks/"+deck.ID.String()+"/cards", token,
		`{"front":"hola","back":"hello"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = request(t, router, http.MethodGet, "/api/decks/"+deck.ID.String()+"/due", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var due api.DueCardsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &due))
	assert.Len(t, due.Cards, 1)
}

func TestRouter_RequiresToken(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, testConfig())
	router := app.setupRouter()

	rec := request(t, router, http.MethodGet, "/api/decks", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = request(t, router, http.MethodGet, "/api/decks", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))

	rec = request(t, router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RateLimitsPerUser(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Server.RateLimitPerSecond = 0.01
	cfg.Server.RateLimitBurst = 2
	app := newTestApp(t, cfg)
	router := app.setupRouter()

	token, err := app.jwtService.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	for range 2 {
		require.Equal(t, http.StatusOK, request(t, router, http.MethodGet, "/api/decks", token, "").Code)
	}
	rec := request(t, router, http.MethodGet, "/api/decks", token, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestNewApplication_InvalidSchedulerParams(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Scheduler.DesiredRetention = 1.5

	log, _ := logger.NewTestLogger(t)
	_, err := openApplication(context.Background(), cfg, log, true)
	assert.ErrorContains(t, err, "invalid scheduler parameters")
}

func TestTokenCommand(t *testing.T) {
	cfg := testConfig()
	loadConfig = func() (*config.Config, error) { return cfg, nil }
	t.Cleanup(func() { loadConfig = config.Load })

	userID := uuid.New()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--user", userID.String()})
	require.NoError(t, cmd.Execute())

	token := strings.TrimSpace(out.String())
	app := newTestApp(t, cfg)
	claims, err := app.jwtService.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	cmd = newRootCmd()
	cmd.SetArgs([]string{"token", "--user", "bob"})
	assert.Error(t, cmd.Execute())
}

func TestMigrateCommand_RejectsUnknownAction(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "sideways"})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}
