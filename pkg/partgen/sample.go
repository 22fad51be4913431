package partgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/tenon/pkg/assembly"
	"github.com/chazu/tenon/pkg/config"
	"github.com/chazu/tenon/pkg/kernel"
	"github.com/chazu/tenon/pkg/tessellate"
)

// SampleScale converts sample part units (centimeters) to meters.
const SampleScale = 0.01

// SampleTable is the table file written next to the sample project.
const SampleTable = "assemblies.yaml"

// Part is a generated part: a shape, its file and its placement.
type Part struct {
	File  string
	Label string
	Shape *tessellate.Shape
	Color [4]float64

	// Translation places the part in the assembly, in meters.
	Translation [3]float64
}

// upright turns a Z-axis solid onto the Y axis.
func upright(s *tessellate.Shape) *tessellate.Shape {
	return tessellate.Rotate(90, 0, 0, s)
}

// SuspensionParts returns the five parts of a coilover shock absorber.
// Dimensions are in centimeters.
func SuspensionParts() []Part {
	steel := [4]float64{0.55, 0.56, 0.58, 1}
	return []Part{
		{
			File:  "BASE.glb",
			Label: "Base Mount",
			Shape: tessellate.Union(
				upright(tessellate.Tube(3, 2.5, 0.8)),
				tessellate.Translate(0, -2, 0, tessellate.Box(7, 1, 7)),
			),
			Color: [4]float64{0.2, 0.2, 0.22, 1},
		},
		{
			File:        "ROD.glb",
			Label:       "Damper Rod",
			Shape:       upright(tessellate.Cylinder(12, 0.6)),
			Color:       [4]float64{0.85, 0.85, 0.88, 1},
			Translation: [3]float64{0, 0.028, 0},
		},
		{
			File:        "SPRING.glb",
			Label:       "Coil Spring",
			Shape:       upright(tessellate.Tube(9, 2.2, 1.8)),
			Color:       [4]float64{0.8, 0.1, 0.1, 1},
			Translation: [3]float64{0, -0.005, 0},
		},
		{
			File:        "NIT.glb",
			Label:       "Retainer Ring",
			Shape:       upright(tessellate.Tube(0.6, 2.6, 0.7)),
			Color:       steel,
			Translation: [3]float64{0, 0.080, 0},
		},
		{
			File:        "NUT.glb",
			Label:       "Lock Nut",
			Shape:       upright(tessellate.Tube(0.8, 1.2, 0.6)),
			Color:       steel,
			Translation: [3]float64{0, 0.092, 0},
		},
	}
}

// SampleConfig returns the assembly config for parts, stored under dir.
func SampleConfig(name, dir string, parts []Part) assembly.Config {
	cfg := assembly.Config{Name: name, Dir: dir}
	for _, p := range parts {
		t := p.Translation
		cfg.Parts = append(cfg.Parts, assembly.PartSpec{
			SourceFile:  p.File,
			Label:       p.Label,
			Translation: &t,
		})
	}
	return cfg
}

// SampleResult describes a written sample project.
type SampleResult struct {
	Config    assembly.Config
	TablePath string
	PartPaths []string
	Triangles int
}

// WriteSampleProject tessellates the suspension parts into base/suspension
// and writes base/assemblies.yaml. An existing table is left alone unless
// overwrite is set.
func WriteSampleProject(ctx context.Context, base string, k kernel.Kernel, overwrite bool, logger *slog.Logger) (SampleResult, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	parts := SuspensionParts()
	cfg := SampleConfig("Suspension", "suspension", parts)
	res := SampleResult{
		Config:    cfg,
		TablePath: filepath.Join(base, SampleTable),
		PartPaths: make([]string, len(parts)),
	}

	if !overwrite {
		_, err := os.Stat(res.TablePath)
		if err == nil {
			return res, fmt.Errorf("partgen: %s already exists", res.TablePath)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return res, fmt.Errorf("partgen: %w", err)
		}
	}

	dir := cfg.PartDir(base)
	triangles := make([]int, len(parts))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range parts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mesh, err := tessellate.Tessellate(p.Shape, k)
			if err != nil {
				return fmt.Errorf("partgen: %s: %w", p.File, err)
			}
			mesh.PartName = p.Label
			doc, err := Document(mesh, Options{Scale: SampleScale, Color: p.Color, Roughness: 0.5, Metallic: 0.3})
			if err != nil {
				return fmt.Errorf("partgen: %s: %w", p.File, err)
			}
			path := filepath.Join(dir, p.File)
			if err := WritePart(path, doc); err != nil {
				return err
			}
			logger.Debug("part written", "file", path, "triangles", mesh.TriangleCount())
			res.PartPaths[i] = path
			triangles[i] = mesh.TriangleCount()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	for _, n := range triangles {
		res.Triangles += n
	}

	data, err := config.MarshalTable([]assembly.Config{cfg})
	if err != nil {
		return res, fmt.Errorf("partgen: %w", err)
	}
	if err := os.WriteFile(res.TablePath, data, 0o644); err != nil {
		return res, fmt.Errorf("partgen: %w", err)
	}
	logger.Info("sample project written", "table", res.TablePath, "parts", len(parts), "triangles", res.Triangles)
	return res, nil
}
