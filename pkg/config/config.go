// Package config loads tenon settings from TOML and assembly tables from
// YAML or Lisp files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/chazu/tenon/pkg/assembly"
	"github.com/chazu/tenon/pkg/bbox"
)

// DefaultFile is the settings file looked up in the working directory.
const DefaultFile = "tenon.toml"

// DeploySettings control `tenon deploy`.
type DeploySettings struct {
	// Dir receives the staged site, relative to the base dir.
	Dir string `toml:"dir"`

	// Extensions selects project files to copy (lowercase, with dot).
	Extensions []string `toml:"extensions"`

	// Pages are copied from the base dir as is.
	Pages []string `toml:"pages"`

	// Index is copied a second time as index.html. Empty disables it.
	Index string `toml:"index"`

	// Projects limits staging to these project directories. Empty means
	// every project with parts.
	Projects []string `toml:"projects"`
}

// ServerSettings control `tenon serve`.
type ServerSettings struct {
	Addr string `toml:"addr"`
}

// UsageSettings control `tenon usage`.
type UsageSettings struct {
	Extensions []string `toml:"extensions"`
	SkipDirs   []string `toml:"skip_dirs"`
}

// SampleSettings control `tenon sample`.
type SampleSettings struct {
	// Cells is the marching cubes resolution along the longest axis.
	Cells int `toml:"cells"`
}

// Settings is the content of tenon.toml.
type Settings struct {
	// BaseDir holds one directory per project. Relative paths are
	// resolved against the directory of the settings file.
	BaseDir string `toml:"base_dir"`

	// OutputDir receives assembled documents, relative to BaseDir.
	OutputDir string `toml:"output_dir"`

	// Format is "glb" or "gltf".
	Format string `toml:"format"`

	// Workers bounds how many assemblies run at once. 0 means one per
	// assembly.
	Workers int `toml:"workers"`

	// WorldScale converts part units to assembly units in size reports.
	WorldScale float64 `toml:"world_scale"`

	// Tables lists assembly table files (.yaml, .yml, .lisp, .zy),
	// relative to BaseDir.
	Tables []string `toml:"tables"`

	Deploy DeploySettings `toml:"deploy"`
	Server ServerSettings `toml:"server"`
	Usage  UsageSettings  `toml:"usage"`
	Sample SampleSettings `toml:"sample"`
}

// Defaults returns the settings used when no file is present.
func Defaults() Settings {
	return Settings{
		BaseDir:    ".",
		OutputDir:  "assembled",
		Format:     assembly.FormatGLB,
		WorldScale: bbox.DefaultWorldScale,
		Tables:     []string{"assemblies.yaml"},
		Deploy: DeploySettings{
			Dir:        "deploy",
			Extensions: []string{".glb", ".png", ".jpg", ".jpeg"},
			Pages:      []string{"viewer.html", "report.html"},
			Index:      "report.html",
		},
		Server: ServerSettings{Addr: ":3000"},
		Usage: UsageSettings{
			Extensions: []string{".glb", ".png", ".jpg", ".html"},
			SkipDirs:   []string{"node_modules", ".git"},
		},
		Sample: SampleSettings{Cells: 64},
	}
}

// Load reads settings from path on top of Defaults. Unknown keys are an
// error. A missing file is only an error if required is true; otherwise
// defaults are returned with BaseDir resolved against the directory of
// path.
func Load(path string, required bool) (Settings, error) {
	s := Defaults()

	path, err := homedir.Expand(path)
	if err != nil {
		return s, fmt.Errorf("config: %w", err)
	}

	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !required:
	case err != nil:
		return s, fmt.Errorf("config: %w", err)
	default:
		defer f.Close()
		dec := toml.NewDecoder(f).DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return s, fmt.Errorf("config: %s: %s", path, strict.String())
			}
			return s, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	if err := s.resolve(filepath.Dir(path)); err != nil {
		return s, err
	}
	return s, s.Validate()
}

// resolve expands ~ and makes BaseDir absolute relative to dir.
func (s *Settings) resolve(dir string) error {
	base, err := homedir.Expand(s.BaseDir)
	if err != nil {
		return fmt.Errorf("config: base_dir: %w", err)
	}
	if !filepath.IsAbs(base) {
		base = filepath.Join(dir, base)
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return fmt.Errorf("config: base_dir: %w", err)
	}
	s.BaseDir = abs
	return nil
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	if s.Format != assembly.FormatGLB && s.Format != assembly.FormatGLTF {
		return fmt.Errorf("config: format %q: want %q or %q", s.Format, assembly.FormatGLB, assembly.FormatGLTF)
	}
	if s.Workers < 0 {
		return fmt.Errorf("config: workers must not be negative")
	}
	if s.WorldScale <= 0 {
		return fmt.Errorf("config: world_scale must be positive")
	}
	if s.Sample.Cells < 8 {
		return fmt.Errorf("config: sample.cells must be at least 8")
	}
	return nil
}

// Path resolves p against BaseDir, expanding ~.
func (s Settings) Path(p string) string {
	if exp, err := homedir.Expand(p); err == nil {
		p = exp
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.BaseDir, p)
}

// OutputPath returns the absolute output directory.
func (s Settings) OutputPath() string {
	return s.Path(s.OutputDir)
}

// DeployPath returns the absolute deploy directory.
func (s Settings) DeployPath() string {
	return s.Path(s.Deploy.Dir)
}

// TablePaths returns the absolute paths of the configured tables.
func (s Settings) TablePaths() []string {
	out := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		out[i] = s.Path(t)
	}
	return out
}

// AssemblerOptions converts settings into assembler options.
func (s Settings) AssemblerOptions() assembly.Options {
	return assembly.Options{
		BaseDir:   s.BaseDir,
		OutputDir: s.OutputPath(),
		Format:    s.Format,
	}
}
