package assembly

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"

	"github.com/chazu/tenon/pkg/consolidate"
	"github.com/chazu/tenon/pkg/docgraph"
)

// Output formats.
const (
	FormatGLB  = "glb"
	FormatGLTF = "gltf"
)

// Options configure an Assembler.
type Options struct {
	// BaseDir holds one directory of part files per assembly.
	BaseDir string

	// OutputDir receives <name>_assembled.<format>. It is created if
	// missing.
	OutputDir string

	// Format is FormatGLB (default) or FormatGLTF. A glTF output embeds
	// the buffer as a data URI.
	Format string

	Logger *slog.Logger
}

// Result is the outcome of one assembly.
type Result struct {
	Name string

	// OutputPath is empty when nothing was written.
	OutputPath string

	Outcomes []Outcome

	// Err is the fatal error, if any. Per-part failures are in Outcomes.
	Err error

	Scenes    int
	Buffers   int
	RootNodes int
	Nodes     int

	// Warnings are non-blocking validation findings.
	Warnings []string

	Stats FoldStats
}

// OK reports whether the assembly was written.
func (r Result) OK() bool {
	return r.Err == nil && r.OutputPath != ""
}

// Failed returns the outcomes of parts that were skipped.
func (r Result) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Assembler runs assemblies.
type Assembler struct {
	opts   Options
	logger *slog.Logger
}

// New returns an Assembler. It returns an error for an unknown format.
func New(opts Options) (*Assembler, error) {
	opts.Format = strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if opts.Format == "" {
		opts.Format = FormatGLB
	}
	if opts.Format != FormatGLB && opts.Format != FormatGLTF {
		return nil, fmt.Errorf("assembly: unknown output format %q", opts.Format)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Assembler{opts: opts, logger: logger}, nil
}

// OutputPath returns where the assembly named by cfg is written.
func (a *Assembler) OutputPath(cfg Config) string {
	return filepath.Join(a.opts.OutputDir, cfg.OutputName(a.opts.Format))
}

// Assemble folds the parts of cfg, consolidates scenes and buffers,
// validates the result and writes it. On a fatal error no file is
// written and Result.Err is set.
func (a *Assembler) Assemble(ctx context.Context, cfg Config) Result {
	res := Result{Name: cfg.Name}
	log := a.logger.With("assembly", cfg.Name)
	log.Info("assembling", "parts", len(cfg.Parts))

	merger := &Merger{Loader: NewLoader(), Logger: a.logger}
	doc, outcomes, stats, err := merger.Fold(ctx, cfg.PartDir(a.opts.BaseDir), cfg)
	res.Outcomes = outcomes
	res.Stats = stats
	if err != nil {
		return a.fail(log, res, err)
	}

	consolidate.Scenes(doc)
	if err := consolidate.Buffers(doc); err != nil {
		return a.fail(log, res, fmt.Errorf("assembly %q: %w", cfg.Name, err))
	}

	check := docgraph.ValidateAssembled(doc)
	for _, w := range check.Warnings {
		res.Warnings = append(res.Warnings, w.Error())
	}
	if !check.OK() {
		errs := make([]error, len(check.Errors))
		for i, e := range check.Errors {
			errs[i] = e
		}
		return a.fail(log, res, fmt.Errorf("assembly %q: %w: %w", cfg.Name, ErrStructural, errors.Join(errs...)))
	}

	res.Scenes = len(doc.Scenes)
	res.Buffers = len(doc.Buffers)
	res.RootNodes = docgraph.SceneNodeCount(doc, 0)
	res.Nodes = len(doc.Nodes)

	if err := ctx.Err(); err != nil {
		return a.fail(log, res, fmt.Errorf("assembly %q: %w", cfg.Name, err))
	}

	out := a.OutputPath(cfg)
	if err := a.write(doc, out); err != nil {
		return a.fail(log, res, fmt.Errorf("assembly %q: %w", cfg.Name, err))
	}
	res.OutputPath = out
	log.Info("assembled", "output", out, "roots", res.RootNodes, "failed_parts", len(res.Failed()))
	return res
}

func (a *Assembler) fail(log *slog.Logger, res Result, err error) Result {
	res.Err = err
	log.Error("assembly failed", "err", err)
	return res
}

// write saves doc to a temporary file next to path and renames it into
// place, so a partial file never appears under the final name.
func (a *Assembler) write(doc *gltf.Document, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+"-*."+a.opts.Format)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if a.opts.Format == FormatGLTF {
		for _, b := range doc.Buffers {
			b.EmbeddedResource()
		}
		err = gltf.Save(doc, tmpPath)
	} else {
		err = gltf.SaveBinary(doc, tmpPath)
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
