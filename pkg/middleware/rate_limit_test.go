package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/draftdesk/draftdesk/backend/go-services/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func get(r *gin.Engine, path, collaborator string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	if collaborator != "" {
		req.Header.Set(CollaboratorHeader, collaborator)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(10, 2)) // generous rate
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))
	require.Equal(t, http.StatusOK, get(r, "/ok", "under-limit").Code)
	require.Equal(t, http.StatusOK, get(r, "/ok", "under-limit").Code)
	after := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))
	require.Equal(t, 2.0, after-before)
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2, 1))
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, get(r, "/limited", "exceeded").Code)
	w := get(r, "/limited", "exceeded")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Contains(t, w.Body.String(), "rate_limited")

	// one token is back after half a second at 2 rps
	time.Sleep(600 * time.Millisecond)
	require.Equal(t, http.StatusOK, get(r, "/limited", "exceeded").Code)
}

func TestRateLimitMiddleware_KeysByCollaborator(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(0.5, 1))
	r.GET("/u", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, get(r, "/u", "keyed-a").Code)
	require.Equal(t, http.StatusTooManyRequests, get(r, "/u", "keyed-a").Code)
	// same IP, different collaborator: separate bucket
	require.Equal(t, http.StatusOK, get(r, "/u", "keyed-b").Code)
}

func TestRequireCollaborator(t *testing.T) {
	r := gin.New()
	r.Use(RequireCollaborator())
	r.GET("/who", func(c *gin.Context) { c.String(200, CollaboratorID(c)) })

	w := get(r, "/who", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "unauthenticated")

	w = get(r, "/who", "u-42")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "u-42", w.Body.String())
}
