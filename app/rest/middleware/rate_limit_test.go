package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sua-a1/cram-app-sub001/app/utils/errors"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }
func newFakeClock() *fakeClock               { return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)} }

func newTestRateLimiter(t *testing.T, perMinute float64, burst int) (*RateLimiter, *fakeClock) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	clock := newFakeClock()
	rl := NewRateLimiter(ctx, perMinute, burst)
	rl.now = clock.now
	return rl, clock
}

func serveLimited(rl *RateLimiter, remoteAddr string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/signin", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := rl.Middleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})(c)
	return rec, err
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl, clock := newTestRateLimiter(t, 60, 2)

	for i := 0; i < 2; i++ {
		rec, err := serveLimited(rl, "203.0.113.7:5000")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}

	rec, err := serveLimited(rl, "203.0.113.7:5001")
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrCodeRateLimitExceeded, appErr.Code)
	assert.Equal(t, http.StatusTooManyRequests, appErr.StatusCode)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	clock.advance(time.Second)
	_, err = serveLimited(rl, "203.0.113.7:5002")
	assert.NoError(t, err)
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl, _ := newTestRateLimiter(t, 10, 1)

	_, err := serveLimited(rl, "203.0.113.7:5000")
	require.NoError(t, err)
	_, err = serveLimited(rl, "203.0.113.7:5000")
	require.Error(t, err)

	_, err = serveLimited(rl, "198.51.100.4:5000")
	assert.NoError(t, err)
}

func TestRateLimiter_RetryAfterRoundsUp(t *testing.T) {
	rl, _ := newTestRateLimiter(t, 10, 1)
	assert.Equal(t, 6, rl.retryAfter())
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl, clock := newTestRateLimiter(t, 60, 1)

	_, err := serveLimited(rl, "203.0.113.7:5000")
	require.NoError(t, err)
	clock.advance(2 * time.Minute)
	_, err = serveLimited(rl, "198.51.100.4:5000")
	require.NoError(t, err)

	clock.advance(4 * time.Minute)
	rl.evictIdle()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "203.0.113.7")
	assert.Contains(t, rl.visitors, "198.51.100.4")
}
