package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func hitRateLimited(t *testing.T, mw echo.MiddlewareFunc) int {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/signin", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok, "expected HTTPError")
		return he.Code
	}
	return rec.Code
}

func TestRateLimit_NilClientPassesThrough(t *testing.T) {
	mw := RateLimit(nil, 1, time.Minute)

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, hitRateLimited(t, mw))
	}
}

func TestRateLimit_ZeroLimitPassesThrough(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer rdb.Close()

	mw := RateLimit(rdb, 0, time.Minute)
	require.Equal(t, http.StatusOK, hitRateLimited(t, mw))
}

// Redis being down must never lock out sign-in.
func TestRateLimit_DegradesWhenRedisUnavailable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            "127.0.0.1:1",
		DialTimeout:     100 * time.Millisecond,
		MaxRetries:      -1,
		PoolTimeout:     100 * time.Millisecond,
		ReadTimeout:     100 * time.Millisecond,
		WriteTimeout:    100 * time.Millisecond,
		MinRetryBackoff: -1,
		MaxRetryBackoff: -1,
	})
	defer rdb.Close()

	mw := RateLimit(rdb, 1, time.Minute)
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, hitRateLimited(t, mw))
	}
}
