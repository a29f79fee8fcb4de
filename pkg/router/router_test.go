package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func tag(name string) HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(name))
	}
}

func newTestRouter() *Router {
	r := New(zap.NewNop())
	r.GET("/api/v1/runs", tag("list"))
	r.GET("/api/v1/runs/*/report", tag("report"))
	r.GET("/api/v1/runs/*", tag("get"))
	r.GET("/swagger/*", tag("swagger"))
	return r
}

func TestRouter_Dispatch(t *testing.T) {
	tests := []struct {
		method, path string
		status       int
		body         string
	}{
		{http.MethodGet, "/api/v1/runs", http.StatusOK, "list"},
		{http.MethodGet, "/api/v1/runs/abc", http.StatusOK, "get"},
		{http.MethodGet, "/api/v1/runs/abc/report", http.StatusOK, "report"},
		{http.MethodGet, "/swagger/index.html", http.StatusOK, "swagger"},
		{http.MethodGet, "/swagger/a/b.js", http.StatusOK, "swagger"},
		{http.MethodPost, "/api/v1/runs", http.StatusMethodNotAllowed, ""},
		{http.MethodDelete, "/api/v1/runs/abc", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/nope", http.StatusNotFound, ""},
		{http.MethodGet, "/api/v1", http.StatusNotFound, ""},
	}
	r := newTestRouter()
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestMatchWildcardRoute(t *testing.T) {
	assert.True(t, matchWildcardRoute("/a/1/b", "/a/*/b"))
	assert.False(t, matchWildcardRoute("/a/1/c", "/a/*/b"))
	assert.True(t, matchWildcardRoute("/a/1/2", "/a/*"))
	assert.False(t, matchWildcardRoute("/a", "/a/*"))
}

func TestSegment(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/abc/report", nil)
	assert.Equal(t, "abc", Segment(req, 3))
	assert.Equal(t, "", Segment(req, 9))
}
