package router

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestAdminAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{
			name:     "correct token",
			header:   "secret-token",
			wantCode: http.StatusOK,
		},
		{
			name:     "wrong token",
			header:   "wrong-token",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "missing token",
			header:   "",
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))

			r := gin.New()
			r.Use(AdminAuthMiddleware("secret-token", logger))
			r.POST("/grant", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"status": "ok"})
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/grant", nil)
			if tt.header != "" {
				req.Header.Set("X-Admin-Token", tt.header)
			}

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}
