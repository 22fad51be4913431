package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/samber/lo"

	"github.com/chazu/tenon/pkg/assembly"
	"github.com/chazu/tenon/pkg/config"
	"github.com/chazu/tenon/pkg/kernel/sdfx"
	"github.com/chazu/tenon/pkg/partgen"
	"github.com/chazu/tenon/pkg/project"
	"github.com/chazu/tenon/pkg/report"
	"github.com/chazu/tenon/pkg/server"
	"github.com/chazu/tenon/pkg/watch"
)

// errFailed signals that the command ran but some work failed. The
// details have already been printed.
var errFailed = errors.New("one or more assemblies failed")

// watchExtensions are the files whose changes trigger re-assembly.
var watchExtensions = []string{".glb", ".gltf", ".yaml", ".yml", ".lisp", ".zy"}

// App runs tenon commands against one set of settings.
type App struct {
	settings config.Settings
	logger   *slog.Logger
	out      *report.Printer
	stdout   io.Writer
}

// NewApp creates an App printing reports to stdout.
func NewApp(s config.Settings, logger *slog.Logger, stdout io.Writer, color bool) *App {
	return &App{
		settings: s,
		logger:   logger,
		out:      report.New(stdout, color),
		stdout:   stdout,
	}
}

// loadConfigs reads every configured table and keeps the named
// assemblies, in table order. No names means all.
func (a *App) loadConfigs(names []string) ([]assembly.Config, error) {
	cfgs, err := config.LoadTables(a.logger, a.settings.TablePaths()...)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return cfgs, nil
	}
	known := lo.Map(cfgs, func(c assembly.Config, _ int) string { return c.Name })
	if missing, _ := lo.Difference(names, known); len(missing) > 0 {
		return nil, fmt.Errorf("unknown assemblies: %v", missing)
	}
	return lo.Filter(cfgs, func(c assembly.Config, _ int) bool {
		return lo.Contains(names, c.Name)
	}), nil
}

func (a *App) assembler() (*assembly.Assembler, error) {
	opts := a.settings.AssemblerOptions()
	opts.Logger = a.logger
	return assembly.New(opts)
}

// Assemble builds the named assemblies (all when names is empty).
func (a *App) Assemble(ctx context.Context, names []string) ([]assembly.Result, error) {
	cfgs, err := a.loadConfigs(names)
	if err != nil {
		return nil, err
	}
	return a.assembleConfigs(ctx, cfgs)
}

func (a *App) assembleConfigs(ctx context.Context, cfgs []assembly.Config) ([]assembly.Result, error) {
	asm, err := a.assembler()
	if err != nil {
		return nil, err
	}
	results := assembly.RunBatch(ctx, asm, cfgs, a.settings.Workers)
	a.out.Batch(results)
	if assembly.Failed(results) > 0 {
		return results, errFailed
	}
	return results, nil
}

func (a *App) inspect(ctx context.Context, names []string) ([]project.FileReport, error) {
	projects, err := project.Select(a.settings.BaseDir, names)
	if err != nil {
		return nil, err
	}
	return project.InspectProjects(ctx, a.settings.BaseDir, projects)
}

// Analyze prints the mesh bounds and world size of every part file.
func (a *App) Analyze(ctx context.Context, names []string) error {
	reps, err := a.inspect(ctx, names)
	if err != nil {
		return err
	}
	a.out.Analysis(reps, a.settings.WorldScale)
	return nil
}

// BBox prints the bounds of every primitive of every part file.
func (a *App) BBox(ctx context.Context, names []string) error {
	reps, err := a.inspect(ctx, names)
	if err != nil {
		return err
	}
	a.out.BBoxes(reps)
	return nil
}

// Inspect prints the node transforms of every part file.
func (a *App) Inspect(ctx context.Context, names []string) error {
	reps, err := a.inspect(ctx, names)
	if err != nil {
		return err
	}
	a.out.Nodes(reps)
	return nil
}

// Usage prints the disk usage of the base directory.
func (a *App) Usage() error {
	u := a.settings.Usage
	rep, err := project.Usage(a.settings.BaseDir, u.Extensions, u.SkipDirs)
	if err != nil {
		return err
	}
	a.out.Usage(rep, u.Extensions)
	return nil
}

// Deploy stages the site into the deploy directory.
func (a *App) Deploy() error {
	rep, err := project.Stage(a.settings, a.logger)
	if err != nil {
		return err
	}
	a.out.Stage(rep)
	return nil
}

// Serve runs the viewer server until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	addr := a.settings.Server.Addr
	fmt.Fprintf(a.stdout, "\n  3D Assembly Viewer running at:\n  http://%s/viewer.html\n\n", displayAddr(addr))
	return server.Run(ctx, server.New(a.settings, a.logger), addr)
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

// Watch assembles everything once, then re-assembles on changes until ctx
// is done. A change in a part directory rebuilds the assemblies reading
// from it; a change next to the tables reloads them and rebuilds all.
func (a *App) Watch(ctx context.Context) error {
	cfgs, err := a.loadConfigs(nil)
	if err != nil {
		return err
	}
	if _, err := a.assembleConfigs(ctx, cfgs); err != nil && !errors.Is(err, errFailed) {
		return err
	}

	dirs := lo.Uniq(append(lo.Map(a.settings.TablePaths(), func(p string, _ int) string { return filepath.Dir(p) }),
		lo.Map(cfgs, func(c assembly.Config, _ int) string { return c.PartDir(a.settings.BaseDir) })...))
	dirs = lo.Filter(dirs, func(d string, _ int) bool {
		info, err := os.Stat(d)
		return err == nil && info.IsDir()
	})

	tableDirs := lo.Map(a.settings.TablePaths(), func(p string, _ int) string { return filepath.Dir(p) })
	a.logger.Info("watching", "dirs", len(dirs))
	return watch.Run(ctx, dirs, watch.Options{Extensions: watchExtensions, Logger: a.logger}, func(changed []string) {
		if lo.Some(changed, tableDirs) {
			reloaded, err := a.loadConfigs(nil)
			if err != nil {
				a.logger.Error("reload tables", "err", err)
				return
			}
			cfgs = reloaded
			a.assembleConfigs(ctx, cfgs)
			return
		}
		affected := lo.Filter(cfgs, func(c assembly.Config, _ int) bool {
			return slices.Contains(changed, c.PartDir(a.settings.BaseDir))
		})
		if len(affected) > 0 {
			a.assembleConfigs(ctx, affected)
		}
	})
}

// Sample writes the generated suspension project into dir.
func (a *App) Sample(ctx context.Context, dir string, force bool) error {
	if dir == "" {
		dir = a.settings.BaseDir
	}
	k := sdfx.NewWithCells(a.settings.Sample.Cells)
	res, err := partgen.WriteSampleProject(ctx, dir, k, force, a.logger)
	if err != nil {
		return err
	}
	for _, p := range res.PartPaths {
		fmt.Fprintf(a.stdout, "  + %s\n", p)
	}
	fmt.Fprintf(a.stdout, "  + %s\n\n%d parts, %d triangles\n", res.TablePath, len(res.PartPaths), res.Triangles)
	return nil
}
