package ratelimit

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_RateLimitExceeded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	lim := New(0, time.Minute) // limit 0 -> always deny
	r := gin.New()
	r.Use(Middleware(lim))
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, 429, w.Code)
	var body map[string]any
	err := json.Unmarshal(w.Body.Bytes(), &body)
	require.NoError(t, err)
	require.Equal(t, "Rate limit exceeded. Try again later.", body["error"])
	require.Equal(t, "RATE_LIMITED", body["code"])
	require.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestMiddleware_AllowsUnderLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	lim := New(2, time.Minute)
	r := gin.New()
	r.Use(Middleware(lim))
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		r.ServeHTTP(w, req)
		require.Equal(t, 200, w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, 429, w.Code)
}

func TestUserBasedMiddleware_SeparateBuckets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	lim := New(1, time.Minute)
	r := gin.New()
	// fake auth middleware stamping the user id from a header
	r.Use(func(c *gin.Context) {
		c.Set("userID", c.GetHeader("X-Test-User"))
	})
	r.Use(UserBasedMiddleware(lim))
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	do := func(user string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Test-User", user)
		r.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, 200, do("alice"))
	require.Equal(t, 429, do("alice"))
	// bob gets a separate bucket
	require.Equal(t, 200, do("bob"))
}

func TestLimiterSlidingWindow(t *testing.T) {
	lim := New(1, 50*time.Millisecond)

	require.True(t, lim.Allow("k"))
	require.False(t, lim.Allow("k"))

	time.Sleep(60 * time.Millisecond)
	require.True(t, lim.Allow("k"))
}
