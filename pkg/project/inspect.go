package project

import (
	"context"
	"path/filepath"
	"runtime"

	"github.com/qmuntal/gltf"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/tenon/pkg/bbox"
	"github.com/chazu/tenon/pkg/docgraph"
)

// FileReport is what tenon knows about one part file without assembling
// it: mesh bounds, node transforms and structural findings.
type FileReport struct {
	Project string
	File    string
	Path    string

	Summary    bbox.Summary
	Primitives []bbox.PrimitiveBounds
	Nodes      []docgraph.NodeInfo
	Issues     []docgraph.ValidationError

	Err error
}

// Inspect opens one part file and reports on it. Load and read failures
// are returned in FileReport.Err.
func Inspect(path string) FileReport {
	rep := FileReport{File: filepath.Base(path), Path: path}
	doc, err := gltf.Open(path)
	if err != nil {
		rep.Err = err
		return rep
	}
	rep.Issues = docgraph.Validate(doc)
	rep.Nodes = docgraph.Describe(doc)
	if rep.Primitives, err = bbox.PerPrimitive(doc); err != nil {
		rep.Err = err
		return rep
	}
	if rep.Summary, err = bbox.Aggregate(doc); err != nil {
		rep.Err = err
	}
	return rep
}

// InspectProjects inspects every part of every project, in project and
// file order. Files are read in parallel.
func InspectProjects(ctx context.Context, base string, projects []Project) ([]FileReport, error) {
	var jobs []FileReport
	for _, p := range projects {
		for _, f := range p.Parts {
			jobs = append(jobs, FileReport{Project: p.Name, File: f, Path: filepath.Join(p.Dir(base), f)})
		}
	}

	out := make([]FileReport, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rep := Inspect(job.Path)
			rep.Project = job.Project
			out[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
