// Package partgen turns generated meshes into single-part glTF documents
// and writes a sample project that the assembler can consume.
package partgen

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/chazu/tenon/pkg/kernel"
)

// ErrEmptyMesh is returned when a mesh has no triangles.
var ErrEmptyMesh = errors.New("partgen: empty mesh")

// Options control how a mesh becomes a part document.
type Options struct {
	// Name is used for the node, mesh and material. Defaults to the mesh
	// PartName.
	Name string

	// Scale is the uniform node scale. 0 means 1.
	Scale float64

	// Color is the linear RGBA base color. A zero color means light grey.
	Color [4]float64

	Metallic  float64
	Roughness float64
}

var defaultColor = [4]float64{0.8, 0.8, 0.8, 1}

// Document builds a one-node, one-mesh document from mesh. The mesh data
// lives in an embedded buffer so the document can be saved as GLB
// directly.
func Document(mesh *kernel.Mesh, opts Options) (*gltf.Document, error) {
	if mesh == nil || mesh.TriangleCount() == 0 {
		return nil, ErrEmptyMesh
	}
	if len(mesh.Normals) != len(mesh.Vertices) {
		return nil, fmt.Errorf("partgen: %d normals for %d vertices", len(mesh.Normals)/3, mesh.VertexCount())
	}
	for _, i := range mesh.Indices {
		if int(i) >= mesh.VertexCount() {
			return nil, fmt.Errorf("partgen: index %d out of range for %d vertices", i, mesh.VertexCount())
		}
	}

	name := opts.Name
	if name == "" {
		name = mesh.PartName
	}
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	if scale < 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return nil, fmt.Errorf("partgen: invalid scale %v", opts.Scale)
	}
	color := opts.Color
	if color == ([4]float64{}) {
		color = defaultColor
	}
	metallic, roughness := opts.Metallic, opts.Roughness

	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, mesh.Positions())
	nrm := modeler.WriteNormal(doc, mesh.NormalVectors())
	idx := modeler.WriteIndices(doc, mesh.Indices)

	doc.Materials = []*gltf.Material{{
		Name: name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &color,
			MetallicFactor:  &metallic,
			RoughnessFactor: &roughness,
		},
	}}
	material, meshIdx := 0, 0
	doc.Meshes = []*gltf.Mesh{{
		Name: name,
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{gltf.POSITION: pos, gltf.NORMAL: nrm},
			Indices:    &idx,
			Material:   &material,
		}},
	}}
	doc.Nodes = []*gltf.Node{{
		Name:     name,
		Mesh:     &meshIdx,
		Rotation: [4]float64{0, 0, 0, 1},
		Scale:    [3]float64{scale, scale, scale},
	}}
	doc.Scenes[0].Nodes = []int{0}
	return doc, nil
}

// WritePart saves doc as a binary glTF file at path, creating parent
// directories.
func WritePart(path string, doc *gltf.Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("partgen: %w", err)
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("partgen: write %s: %w", path, err)
	}
	return nil
}
