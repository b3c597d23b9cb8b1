package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/metrics"
	"github.com/ayusman/repcount/internal/session"
)

func newTestServer(t *testing.T) (*Server, *session.Session) {
	t.Helper()
	m, reg := metrics.NewTestManagerAndRegistry()
	sess, err := session.New(session.Config{
		Thresholds: exercise.DefaultThresholds(),
		Initial:    exercise.KindSquat,
		Metrics:    m,
	})
	require.NoError(t, err)

	srv := New(Config{Session: sess, Metrics: m, Gatherer: reg})
	t.Cleanup(srv.Close)
	return srv, sess
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "ok", response["status"])
		assert.Contains(t, response, "uptime")
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "method %s", method)
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_SessionRoutes(t *testing.T) {
	s, sess := newTestServer(t)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/api/session", "", http.StatusOK},
		{http.MethodGet, "/api/exercises", "", http.StatusOK},
		{http.MethodPut, "/api/session/exercise", `{"exercise":"curl"}`, http.StatusOK},
		{http.MethodPut, "/api/session/exercise", `{"exercise":"yoga"}`, http.StatusBadRequest},
		{http.MethodPost, "/api/session/reset", "", http.StatusOK},
		{http.MethodPost, "/api/session/restart", "", http.StatusOK},
		{http.MethodPost, "/api/session", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/session/reset", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}

	assert.Equal(t, exercise.KindCurl, sess.Active())
}

func TestServer_Metrics(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// Vectors appear once they have a child; the histogram is always there.
	assert.True(t, strings.Contains(rec.Body.String(), "repcount_test_sample_duration_seconds"))
}

func TestServer_StaticFiles(t *testing.T) {
	// Create a temporary directory with a static file
	tmpDir, err := os.MkdirTemp("", "repcount-server-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// Create a test HTML file
	testContent := "<html><body>Hello, World!</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	// Create a CSS file for testing direct file access
	cssContent := "body { color: red; }"
	if err := os.WriteFile(filepath.Join(tmpDir, "style.css"), []byte(cssContent), 0644); err != nil {
		t.Fatalf("failed to create test CSS file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir})

	t.Run("serves index.html at root path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != testContent {
			t.Errorf("expected body %q, got %q", testContent, rec.Body.String())
		}
	})

	t.Run("serves static files from configured directory", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/style.css", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != cssContent {
			t.Errorf("expected body %q, got %q", cssContent, rec.Body.String())
		}
	})

	t.Run("returns 404 for non-existent static files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nonexistent.html", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestServer_NoStaticDir(t *testing.T) {
	s := New(Config{})

	t.Run("root path returns 404 when no static dir configured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("metrics are not exposed without a gatherer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_StaticDirKeepsMethodChecks(t *testing.T) {
	m, reg := metrics.NewTestManagerAndRegistry()
	sess, err := session.New(session.Config{
		Thresholds: exercise.DefaultThresholds(),
		Metrics:    m,
	})
	require.NoError(t, err)

	s := New(Config{Session: sess, Metrics: m, Gatherer: reg, StaticDir: t.TempDir()})
	t.Cleanup(s.Close)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPost, "/api/health", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/session/reset", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/api/session", http.StatusMethodNotAllowed},
		{http.MethodPost, "/metrics", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/nonexistent", http.StatusNotFound},
		{http.MethodGet, "/api/session", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
