package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("ok"))
})

func decodeError(t *testing.T, body io.Reader) ErrorDetail {
	t.Helper()
	var eb ErrorBody
	require.NoError(t, json.NewDecoder(body).Decode(&eb))
	return eb.Error
}

func TestAPIKeyAuth(t *testing.T) {
	h := APIKeyAuth(map[string]string{"mobile": "secret-1"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(GetClientFromContext(r.Context())))
	}))

	tests := []struct {
		name   string
		path   string
		header map[string]string
		status int
		body   string
	}{
		{name: "bearer", path: "/v1/analyze", header: map[string]string{"Authorization": "Bearer secret-1"}, status: http.StatusOK, body: "mobile"},
		{name: "raw authorization", path: "/v1/analyze", header: map[string]string{"Authorization": "secret-1"}, status: http.StatusOK, body: "mobile"},
		{name: "x-api-key", path: "/v1/analyze", header: map[string]string{APIKeyHeader: "secret-1"}, status: http.StatusOK, body: "mobile"},
		{name: "missing", path: "/v1/analyze", status: http.StatusUnauthorized},
		{name: "wrong", path: "/v1/analyze", header: map[string]string{"Authorization": "Bearer nope"}, status: http.StatusUnauthorized},
		{name: "probe skips auth", path: "/health", status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, KindUnauthorized, decodeError(t, rec.Body).Kind)
			} else if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestAPIKeyAuth_DisabledWithoutKeys(t *testing.T) {
	h := APIKeyAuth(nil)(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/analyze", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenBucket(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tb := NewTokenBucket(2, 1, now)

	assert.True(t, tb.Allow(now))
	assert.True(t, tb.Allow(now))
	assert.False(t, tb.Allow(now))
	assert.False(t, tb.Allow(now.Add(500*time.Millisecond)))
	assert.True(t, tb.Allow(now.Add(1500*time.Millisecond)))
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(1, 0)
	defer limiter.Close()
	h := RateLimit(limiter)(okHandler)

	call := func(path, addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("/v1/analyze", "10.0.0.1:1111").Code)
	// same IP, different port shares the bucket
	rec := call("/v1/analyze", "10.0.0.1:2222")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, KindRateLimited, decodeError(t, rec.Body).Kind)

	assert.Equal(t, http.StatusOK, call("/v1/analyze", "10.0.0.2:1111").Code)
	assert.Equal(t, http.StatusOK, call("/health", "10.0.0.1:1111").Code)
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	defer limiter.Close()
	now := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	now = now.Add(time.Minute)
	limiter.Allow("b")
	now = now.Add(10 * time.Minute)

	assert.Equal(t, 1, limiter.evictIdle(10*time.Minute))
	assert.Len(t, limiter.buckets, 1)
}

func TestBodyLimit(t *testing.T) {
	h := BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := io.ReadAll(r.Body)
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			WriteError(w, http.StatusRequestEntityTooLarge, KindTooLarge, err.Error())
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("much too large")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	// unknown length is still capped while reading
	req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader("much too large")))
	req.ContentLength = -1
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestBodyLimitForImage(t *testing.T) {
	assert.Equal(t, int64(0), BodyLimitForImage(0))
	assert.Equal(t, int64(4+1024), BodyLimitForImage(3))
	assert.Equal(t, int64(8+1024), BodyLimitForImage(4))
}

func TestPagination(t *testing.T) {
	page, size := Pagination(httptest.NewRequest(http.MethodGet, "/v1/events?page=3&page_size=500", nil))
	assert.Equal(t, 3, page)
	assert.Equal(t, MaxPageSize, size)

	page, size = Pagination(httptest.NewRequest(http.MethodGet, "/v1/events?page=x", nil))
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, size)
}

func TestHealthHandler(t *testing.T) {
	ok := CheckerFunc(func(context.Context) error { return nil })
	down := CheckerFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"db": ok})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"db": ok, "model": down})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var hs HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&hs))
	assert.Equal(t, "unhealthy", hs.Status)
	assert.Equal(t, "connection refused", hs.Checks["model"].Message)
	assert.Equal(t, "healthy", hs.Checks["db"].Status)
}

type fakePinger struct{ deadline bool }

func (p *fakePinger) Ping(ctx context.Context) error {
	_, p.deadline = ctx.Deadline()
	return nil
}

func TestPingChecker_AppliesTimeout(t *testing.T) {
	p := &fakePinger{}
	require.NoError(t, PingChecker{Target: p}.Check(context.Background()))
	assert.True(t, p.deadline)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	var seen string
	h := Logging(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "/v1/events", entry["path"])
}

func TestLogging_GeneratesRequestID(t *testing.T) {
	h := Logging(zerolog.Nop())(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}

func TestAnalysisObserver(t *testing.T) {
	before := testutil.ToFloat64(AnalysisTotal.WithLabelValues("invalid_output"))
	AnalysisObserver{}.ObserveAnalysis("invalid_output", 250*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(AnalysisTotal.WithLabelValues("invalid_output")))
}

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}
