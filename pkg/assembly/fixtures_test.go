package assembly

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/require"
)

func vec(x, y, z float64) *[3]float64 { return &[3]float64{x, y, z} }

// partDocument builds a one-triangle part with a centimeter-to-meter
// node scale, like a CAD export.
func partDocument(name string) *gltf.Document {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {10, 0, 0}, {0, 10, 5}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	mesh := 0
	doc.Meshes = []*gltf.Mesh{{
		Name: name,
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{gltf.POSITION: pos},
			Indices:    &idx,
		}},
	}}
	doc.Nodes = []*gltf.Node{{
		Name:  name,
		Mesh:  &mesh,
		Scale: [3]float64{0.01, 0.01, 0.01},
	}}
	doc.Scenes[0].Nodes = []int{0}
	return doc
}

func writePart(t *testing.T, dir, file string) {
	t.Helper()
	require.NoError(t, gltf.SaveBinary(partDocument(file), filepath.Join(dir, file)))
}

// suspension is the five-part coilover table.
func suspension() Config {
	return Config{
		Name: "Suspension",
		Parts: []PartSpec{
			{SourceFile: "BASE.glb", Label: "Base Mount", Translation: vec(0, 0, 0)},
			{SourceFile: "ROD.glb", Label: "Damper Rod", Translation: vec(0, 0.028, 0)},
			{SourceFile: "SPRING.glb", Label: "Coil Spring", Translation: vec(0, -0.005, 0)},
			{SourceFile: "NIT.glb", Label: "Retainer Ring", Translation: vec(0, 0.080, 0)},
			{SourceFile: "NUT.glb", Label: "Lock Nut", Translation: vec(0, 0.092, 0)},
		},
	}
}

// projectDir creates base/<cfg dir> with every part file of cfg except
// those listed in skip, and returns base.
func projectDir(t *testing.T, cfg Config, skip ...string) string {
	t.Helper()
	base := t.TempDir()
	dir := cfg.PartDir(base)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	skipped := make(map[string]bool)
	for _, s := range skip {
		skipped[s] = true
	}
	written := make(map[string]bool)
	for _, p := range cfg.Parts {
		if skipped[p.SourceFile] || written[p.SourceFile] {
			continue
		}
		writePart(t, dir, p.SourceFile)
		written[p.SourceFile] = true
	}
	return base
}
