// Package sdfx meshes part shapes with the github.com/deadsy/sdfx signed
// distance field library. Solids are combined as distance fields and
// rendered once with uniform marching cubes.
package sdfx

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/tenon/pkg/kernel"
)

var _ kernel.Kernel = (*Kernel)(nil)

const (
	// DefaultMeshCells is the marching cubes resolution along the longest
	// axis of the rendered solid.
	DefaultMeshCells = 200

	// MinMeshCells is the coarsest resolution a kernel renders at.
	MinMeshCells = 8

	// degenerateTol is the edge length under which a triangle is skipped.
	degenerateTol = 1e-9
)

type solid struct {
	sdf sdf.SDF3
}

func (s *solid) BoundingBox() (min, max [3]float64) {
	bb := s.sdf.BoundingBox()
	return [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}, [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
}

func field(s kernel.Solid) sdf.SDF3 { return s.(*solid).sdf }

// Kernel renders distance fields at a fixed marching cubes resolution.
type Kernel struct {
	cells int
}

// New returns a kernel rendering at DefaultMeshCells.
func New() *Kernel {
	return &Kernel{cells: DefaultMeshCells}
}

// NewWithCells returns a kernel rendering at the given resolution, raised
// to MinMeshCells if lower. Sample parts are a few centimeters across, so
// a few dozen cells already resolve their bores.
func NewWithCells(cells int) *Kernel {
	return &Kernel{cells: max(cells, MinMeshCells)}
}

// Cells returns the marching cubes resolution.
func (k *Kernel) Cells() int {
	return k.cells
}

// Box returns a box of the given size centered on the origin.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx: box %gx%gx%g: %v", x, y, z, err))
	}
	return &solid{s}
}

// Cylinder returns a Z-axis cylinder centered on the origin.
func (k *Kernel) Cylinder(height, radius float64) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx: cylinder h=%g r=%g: %v", height, radius, err))
	}
	return &solid{s}
}

func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return &solid{sdf.Union3D(field(a), field(b))}
}

// Difference cuts b out of a.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return &solid{sdf.Difference3D(field(a), field(b))}
}

func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return &solid{sdf.Transform3D(field(s), sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z}))}
}

// Rotate applies X, then Y, then Z rotations in degrees, the order the
// assembly placements use.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.RotateZ(sdf.DtoR(z)).Mul(sdf.RotateY(sdf.DtoR(y))).Mul(sdf.RotateX(sdf.DtoR(x)))
	return &solid{sdf.Transform3D(field(s), m)}
}

// vertexKey identifies a welded vertex: position plus face normal, so
// flat shading survives welding.
type vertexKey [6]float32

// ToMesh renders s and returns a flat-shaded indexed mesh. Degenerate
// and zero-area triangles are skipped. Vertices shared by coplanar
// neighbours are welded.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	tris := render.ToTriangles(field(s), render.NewMarchingCubesUniform(k.cells))

	mesh := &kernel.Mesh{Indices: make([]uint32, 0, len(tris)*3)}
	index := make(map[vertexKey]uint32, len(tris))
	for _, tri := range tris {
		if tri.Degenerate(degenerateTol) {
			continue
		}
		n := tri.Normal()
		if !(n.Length() > 0.5) {
			// collinear sliver; NaN normal
			continue
		}
		for _, v := range tri {
			key := vertexKey{
				float32(v.X), float32(v.Y), float32(v.Z),
				float32(n.X), float32(n.Y), float32(n.Z),
			}
			idx, ok := index[key]
			if !ok {
				idx = uint32(mesh.VertexCount())
				index[key] = idx
				mesh.Vertices = append(mesh.Vertices, key[0], key[1], key[2])
				mesh.Normals = append(mesh.Normals, key[3], key[4], key[5])
			}
			mesh.Indices = append(mesh.Indices, idx)
		}
	}
	return mesh, nil
}
