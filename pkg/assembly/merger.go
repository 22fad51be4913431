package assembly

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/samber/lo"

	"github.com/chazu/tenon/pkg/docgraph"
	"github.com/chazu/tenon/pkg/docmerge"
)

// Outcome records whether one part made it into the assembly.
type Outcome struct {
	Label      string
	SourceFile string
	Err        error
}

// OK reports whether the part was merged.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// FoldStats summarizes a fold.
type FoldStats struct {
	// RootNodes is the number of root nodes contributed by merged parts.
	RootNodes int

	// DroppedAnimations counts animations of non-first parts that were
	// not carried over.
	DroppedAnimations int

	// DroppedExtensions names extensions of non-first parts whose data
	// was not carried over.
	DroppedExtensions []string

	// CacheHits counts parts served from the loader cache.
	CacheHits int
}

// Merger folds the parts of one assembly into a single document.
type Merger struct {
	Loader *Loader
	Logger *slog.Logger
}

// NewMerger returns a Merger with a fresh loader. A nil logger discards
// output.
func NewMerger(logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Merger{Loader: NewLoader(), Logger: logger}
}

// Fold loads, places and merges every part of cfg, in order, reading
// part files from dir. A part that fails to load is recorded in the
// returned outcomes and skipped. If no part loads the error is
// ErrEmptyAssembly. ctx is checked before each part.
func (m *Merger) Fold(ctx context.Context, dir string, cfg Config) (*gltf.Document, []Outcome, FoldStats, error) {
	var (
		acc      *gltf.Document
		outcomes = make([]Outcome, 0, len(cfg.Parts))
		stats    FoldStats
	)

	for _, part := range cfg.Parts {
		if err := ctx.Err(); err != nil {
			return nil, outcomes, stats, fmt.Errorf("assembly %q: %w", cfg.Name, err)
		}

		path := filepath.Join(dir, part.SourceFile)
		doc, err := m.Loader.Load(path)
		if err != nil {
			perr := &PartError{Label: part.Label, SourceFile: part.SourceFile, Err: err}
			outcomes = append(outcomes, Outcome{Label: part.Label, SourceFile: part.SourceFile, Err: perr})
			m.Logger.Warn("part failed", "assembly", cfg.Name, "file", part.SourceFile, "err", err)
			continue
		}

		Place(doc, part)
		stats.RootNodes += len(docgraph.RootNodes(doc))

		if acc == nil {
			acc = doc
		} else {
			ms := docmerge.Merge(acc, doc)
			stats.DroppedAnimations += ms.DroppedAnimations
			if ms.DroppedAnimations > 0 {
				m.Logger.Warn("animations dropped", "assembly", cfg.Name, "part", part.Label, "count", ms.DroppedAnimations)
			}
			if len(ms.DroppedExtensions) > 0 {
				stats.DroppedExtensions = lo.Union(stats.DroppedExtensions, ms.DroppedExtensions)
				m.Logger.Warn("extensions dropped", "assembly", cfg.Name, "part", part.Label, "extensions", strings.Join(ms.DroppedExtensions, ", "))
			}
		}
		outcomes = append(outcomes, Outcome{Label: part.Label, SourceFile: part.SourceFile})
		m.Logger.Debug("part merged", "assembly", cfg.Name, "part", part.Label)
	}
	stats.CacheHits = m.Loader.CacheHits()

	if acc == nil {
		return nil, outcomes, stats, fmt.Errorf("assembly %q: %w", cfg.Name, ErrEmptyAssembly)
	}
	return acc, outcomes, stats, nil
}
