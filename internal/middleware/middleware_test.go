package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/auditor-console/internal/logging"
)

func TestRateLimiterRefills(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, 1)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
}

func TestRateLimiterSweepsIdleBuckets(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }
	rl.lastSweep = now

	rl.Allow("old")
	now = now.Add(bucketTTL + time.Minute)
	rl.Allow("new")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.buckets, "old")
	assert.Contains(t, rl.buckets, "new")
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimitMiddleware(1, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req.RemoteAddr = "10.0.0.1:6666"
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:1234"
	assert.Equal(t, "192.0.2.7", ClientIP(r))
	r.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", ClientIP(r))
}

func TestHealthHandler(t *testing.T) {
	ok := CheckFunc(func(context.Context) error { return nil })
	down := CheckFunc(func(context.Context) error { return errors.New("connection refused") })

	w := httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"analysis": ok})(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"analysis": ok, "database": down})(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["analysis"].Status)
	assert.Equal(t, "connection refused", body.Checks["database"].Message)
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestServiceHealthCheckerAppliesTimeout(t *testing.T) {
	c := &ServiceHealthChecker{
		Service: pingerFunc(func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			if !ok {
				return errors.New("no deadline")
			}
			return nil
		}),
	}
	assert.NoError(t, c.Check(context.Background()))
}

func TestLoggingMiddlewareAddsRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "info", "json")

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(LoggingMiddleware(logger))
	r.Get("/x", func(w http.ResponseWriter, r *http.Request) {
		assert.NotSame(t, logger, logging.FromContext(r.Context()))
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "http request", line["msg"])
	assert.EqualValues(t, http.StatusTeapot, line["status"])
	assert.NotEmpty(t, line["request_id"])
}

func TestUploadName(t *testing.T) {
	assert.Equal(t, "spend.csv", UploadName("spend.csv"))
	assert.Equal(t, "spend.csv", UploadName(`C:\fakepath\spend.csv`))
	assert.Equal(t, "passwd", UploadName("../../etc/passwd"))
	assert.Equal(t, "upload.csv", UploadName("\x00\x01"))
	assert.True(t, IsCSVName("Q3.CSV"))
	assert.False(t, IsCSVName("q3.xlsx"))
}

func TestValidateLimit(t *testing.T) {
	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 5, ValidateLimit(5))
	assert.Equal(t, 100, ValidateLimit(1000))
}
