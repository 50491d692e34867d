package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSameOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SameOrigin(zerolog.Nop()))
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	r.GET("/vote/", ok)
	r.POST("/vote/", ok)

	tests := []struct {
		name    string
		method  string
		headers map[string]string
		want    int
	}{
		{"same origin", http.MethodPost, map[string]string{"Origin": "http://unidesk.test"}, http.StatusNoContent},
		{"same origin referer", http.MethodPost, map[string]string{"Referer": "http://unidesk.test/vote/"}, http.StatusNoContent},
		{"no browser headers", http.MethodPost, nil, http.StatusNoContent},
		{"cross origin", http.MethodPost, map[string]string{"Origin": "http://evil.example"}, http.StatusForbidden},
		{"cross origin referer", http.MethodPost, map[string]string{"Referer": "http://evil.example/form"}, http.StatusForbidden},
		{"opaque origin", http.MethodPost, map[string]string{"Origin": "null"}, http.StatusForbidden},
		{"safe method", http.MethodGet, map[string]string{"Origin": "http://evil.example"}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://unidesk.test/vote/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestMediaHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(MediaHeaders())
	r.GET("/media/*path", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/research_files/a.pdf", nil))
	assert.Equal(t, "attachment", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/candidate_images/a.png", nil))
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "sandbox")
}
