package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/tenon/pkg/config"
	"github.com/chazu/tenon/pkg/project"
)

func put(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func settings(t *testing.T) config.Settings {
	t.Helper()
	base := t.TempDir()
	put(t, filepath.Join(base, "viewer.html"), "<html>viewer</html>")
	put(t, filepath.Join(base, "Suspension", "ROD.glb"), "glb")
	put(t, filepath.Join(base, "Suspension", "shot.png"), "png")
	put(t, filepath.Join(base, "assembled", "Suspension_assembled.glb"), "glb!")
	put(t, filepath.Join(base, "assembled", ".partial-1.glb"), "x")
	put(t, filepath.Join(base, "assembled", "notes.txt"), "x")
	s := config.Defaults()
	s.BaseDir = base
	return s
}

func get(t *testing.T, s config.Settings, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	New(s, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestProjects(t *testing.T) {
	rec := get(t, settings(t), "/api/projects")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []project.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2, "the output dir holds parts too")
	assert.Equal(t, "Suspension", got[0].Name)
	assert.Equal(t, []string{"ROD.glb"}, got[0].Parts)
	assert.Equal(t, []string{"shot.png"}, got[0].Images)
	assert.Equal(t, "assembled", got[1].Name)
}

func TestProjectsEmptyIsArray(t *testing.T) {
	s := config.Defaults()
	s.BaseDir = t.TempDir()
	rec := get(t, s, "/api/projects")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAssembled(t *testing.T) {
	rec := get(t, settings(t), "/api/assembled")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, Output{Name: "Suspension_assembled.glb", Size: 4, URL: "/assembled/Suspension_assembled.glb"}, got[0])
}

func TestAssembledMissingDir(t *testing.T) {
	s := config.Defaults()
	s.BaseDir = t.TempDir()
	rec := get(t, s, "/api/assembled")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestStatic(t *testing.T) {
	s := settings(t)
	rec := get(t, s, "/viewer.html")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>viewer</html>", rec.Body.String())

	rec = get(t, s, "/assembled/Suspension_assembled.glb")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "glb!", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, s, "/missing.html").Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, New(settings(t), nil), "127.0.0.1:0")
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
