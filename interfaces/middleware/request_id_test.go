package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequestIDRouter(seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RequestLogger())
	r.GET("/", func(ctx *gin.Context) {
		*seen = GetRequestID(ctx)
		ctx.Status(http.StatusNoContent)
	})
	return r
}

func TestRequestID(t *testing.T) {
	t.Run("propagates incoming id", func(t *testing.T) {
		var seen string
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		newRequestIDRouter(&seen).ServeHTTP(w, req)

		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})

	t.Run("replaces malformed id", func(t *testing.T) {
		var seen string
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "bad id\n")
		w := httptest.NewRecorder()
		newRequestIDRouter(&seen).ServeHTTP(w, req)

		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("generates when missing", func(t *testing.T) {
		var seen string
		w := httptest.NewRecorder()
		newRequestIDRouter(&seen).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
	})
}
