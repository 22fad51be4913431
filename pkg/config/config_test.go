package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/tenon/pkg/assembly"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingOptional(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(filepath.Join(dir, DefaultFile), false)
	require.NoError(t, err)

	assert.Equal(t, dir, s.BaseDir)
	assert.Equal(t, filepath.Join(dir, "assembled"), s.OutputPath())
	assert.Equal(t, filepath.Join(dir, "deploy"), s.DeployPath())
	assert.Equal(t, assembly.FormatGLB, s.Format)
	assert.Equal(t, ":3000", s.Server.Addr)
	assert.Equal(t, 0.01, s.WorldScale)
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"), true)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, DefaultFile, `
base_dir = "assets"
output_dir = "out"
format = "gltf"
workers = 3
tables = ["a.yaml", "b.lisp"]

[deploy]
dir = "/srv/site"
index = ""

[server]
addr = "127.0.0.1:8080"
`)

	s, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "assets"), s.BaseDir)
	assert.Equal(t, filepath.Join(dir, "assets", "out"), s.OutputPath())
	assert.Equal(t, "/srv/site", s.DeployPath())
	assert.Equal(t, "gltf", s.Format)
	assert.Equal(t, 3, s.Workers)
	assert.Equal(t, "127.0.0.1:8080", s.Server.Addr)
	assert.Empty(t, s.Deploy.Index)
	assert.Equal(t, []string{".glb", ".png", ".jpg", ".jpeg"}, s.Deploy.Extensions, "unset keys keep defaults")
	assert.Equal(t, []string{
		filepath.Join(dir, "assets", "a.yaml"),
		filepath.Join(dir, "assets", "b.lisp"),
	}, s.TablePaths())

	opts := s.AssemblerOptions()
	assert.Equal(t, s.BaseDir, opts.BaseDir)
	assert.Equal(t, s.OutputPath(), opts.OutputDir)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", `colour = "red"`},
		{"unknown nested key", "[server]\nport = 3000"},
		{"bad format", `format = "obj"`},
		{"negative workers", `workers = -1`},
		{"zero scale", `world_scale = 0.0`},
		{"tiny cells", "[sample]\ncells = 2"},
		{"syntax", `base_dir = `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), DefaultFile, tt.content)
			_, err := Load(path, true)
			assert.Error(t, err)
		})
	}
}

func TestLoadExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	defer func() { homedir.DisableCache = false }()
	path := writeFile(t, t.TempDir(), DefaultFile, `base_dir = "~/parts"`)

	s, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "parts"), s.BaseDir)
}
