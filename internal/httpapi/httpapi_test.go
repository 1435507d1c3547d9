package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/app"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/config"
)

func newTestServer(t *testing.T) (*Server, *app.App) {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Embeddings.OllamaURL = ""
	cfg.Embeddings.Model = ""

	a, err := app.Open(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	return New(a, nil), a
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var h app.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	require.True(t, h.OK)
}

func TestHandleScanRequiresRoot(t *testing.T) {
	s, _ := newTestServer(t)
	body, _ := json.Marshal(scanRequest{Root: ""})
	req := httptest.NewRequest(http.MethodPost, "/scan", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotEmpty(t, env.Message)
}

func TestHandleScanAndRecommendEndToEnd(t *testing.T) {
	s, _ := newTestServer(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello world"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("hello world too"), 0o644))

	scanBody, _ := json.Marshal(scanRequest{Root: root})
	req := httptest.NewRequest(http.MethodPost, "/scan", bytes.NewReader(scanBody))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	target := filepath.Join(root, "a.txt")
	req2 := httptest.NewRequest(http.MethodGet, "/recommend?path="+target+"&limit=5", nil)
	w2 := httptest.NewRecorder()
	s.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusOK, w2.Code)
}

func TestHandleRecommendUnknownFileReturnsNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/recommend?path=/does/not/exist.txt", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, "not_found", string(env.Code))
}

func TestHandleActivityLogRequiresRegisteredFile(t *testing.T) {
	s, _ := newTestServer(t)
	body, _ := json.Marshal(activityLogRequest{Path: "/nope.txt"})
	req := httptest.NewRequest(http.MethodPost, "/activity/log", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleActivityLogReturnsSummary(t *testing.T) {
	s, a := newTestServer(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello world"), 0o644))
	_, err := a.Scanner.Scan(context.Background(), root)
	require.NoError(t, err)

	body, _ := json.Marshal(activityLogRequest{Path: filepath.Join(root, "a.txt")})
	httpReq := httptest.NewRequest(http.MethodPost, "/activity/log", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, httpReq)

	require.Equal(t, http.StatusOK, w.Code)
	var resp activityLogResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, int64(1), resp.AccessCountAfter)
}
