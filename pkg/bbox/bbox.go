// Package bbox computes axis-aligned bounds of the geometry in a glTF
// document.
//
// Bounds are mesh-local: node translation, rotation and scale are not
// applied. A part whose vertices are authored in centimeters and scaled
// down by its node still reports centimeters.
package bbox

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// DefaultWorldScale converts authored part units to assembly units
// (centimeters to meters).
const DefaultWorldScale = 0.01

// Summary is the union of the bounds of every primitive with positions.
type Summary struct {
	Min        [3]float64
	Max        [3]float64
	Size       [3]float64
	Center     [3]float64
	Primitives int
}

// Empty reports whether no primitive contributed to the summary.
func (s Summary) Empty() bool {
	return s.Primitives == 0
}

// Scaled returns Size multiplied by f.
func (s Summary) Scaled(f float64) [3]float64 {
	return [3]float64{s.Size[0] * f, s.Size[1] * f, s.Size[2] * f}
}

// PrimitiveBounds are the bounds of one mesh primitive.
type PrimitiveBounds struct {
	Mesh      int
	Primitive int
	MeshName  string
	Min       [3]float64
	Max       [3]float64
}

// Size returns Max - Min.
func (p PrimitiveBounds) Size() [3]float64 {
	return [3]float64{p.Max[0] - p.Min[0], p.Max[1] - p.Min[1], p.Max[2] - p.Min[2]}
}

// PerPrimitive lists the bounds of every primitive that has a POSITION
// attribute, in mesh order. The accessor's authored min/max are used when
// present; otherwise the positions are read and scanned.
func PerPrimitive(doc *gltf.Document) ([]PrimitiveBounds, error) {
	var out []PrimitiveBounds
	for mi, m := range doc.Meshes {
		for pi, p := range m.Primitives {
			idx, ok := p.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			if idx < 0 || idx >= len(doc.Accessors) {
				return nil, fmt.Errorf("bbox: mesh %d primitive %d: POSITION accessor %d out of range", mi, pi, idx)
			}
			min, max, err := accessorBounds(doc, doc.Accessors[idx])
			if err != nil {
				return nil, fmt.Errorf("bbox: mesh %d primitive %d: %w", mi, pi, err)
			}
			out = append(out, PrimitiveBounds{
				Mesh:      mi,
				Primitive: pi,
				MeshName:  m.Name,
				Min:       min,
				Max:       max,
			})
		}
	}
	return out, nil
}

// Aggregate folds the bounds of every primitive into one box. A document
// without positioned primitives yields an empty Summary and no error.
func Aggregate(doc *gltf.Document) (Summary, error) {
	prims, err := PerPrimitive(doc)
	if err != nil {
		return Summary{}, err
	}
	if len(prims) == 0 {
		return Summary{}, nil
	}

	box := toBox(prims[0])
	for _, p := range prims[1:] {
		box = box.Extend(toBox(p))
	}
	size := box.Size()
	center := box.Center()
	return Summary{
		Min:        fromVec(box.Min),
		Max:        fromVec(box.Max),
		Size:       fromVec(size),
		Center:     fromVec(center),
		Primitives: len(prims),
	}, nil
}

func toBox(p PrimitiveBounds) sdf.Box3 {
	return sdf.Box3{
		Min: v3.Vec{X: p.Min[0], Y: p.Min[1], Z: p.Min[2]},
		Max: v3.Vec{X: p.Max[0], Y: p.Max[1], Z: p.Max[2]},
	}
}

func fromVec(v v3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func accessorBounds(doc *gltf.Document, acc *gltf.Accessor) (min, max [3]float64, err error) {
	if len(acc.Min) >= 3 && len(acc.Max) >= 3 {
		copy(min[:], acc.Min[:3])
		copy(max[:], acc.Max[:3])
		return min, max, nil
	}

	pos, err := modeler.ReadPosition(doc, acc, nil)
	if err != nil {
		return min, max, fmt.Errorf("read positions: %w", err)
	}
	if len(pos) == 0 {
		return min, max, fmt.Errorf("accessor has no min/max and no positions")
	}
	for i := 0; i < 3; i++ {
		min[i] = math.Inf(1)
		max[i] = math.Inf(-1)
	}
	for _, p := range pos {
		for i := 0; i < 3; i++ {
			v := float64(p[i])
			min[i] = math.Min(min[i], v)
			max[i] = math.Max(max[i], v)
		}
	}
	return min, max, nil
}
