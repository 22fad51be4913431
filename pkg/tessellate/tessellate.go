// Package tessellate turns a shape tree into a triangle mesh using a
// geometry kernel.
package tessellate

import (
	"fmt"

	"github.com/chazu/tenon/pkg/kernel"
)

// boreMargin lengthens tube bores so the cut passes cleanly through both
// caps.
const boreMargin = 1.02

type opKind int

const (
	opTranslate opKind = iota
	opRotate
)

type transformOp struct {
	kind opKind
	v    [3]float64
}

// transformStack accumulates spatial transforms during tree traversal.
type transformStack struct {
	ops []transformOp
}

func newTransformStack() *transformStack {
	return &transformStack{}
}

func (ts *transformStack) push(op transformOp) {
	ts.ops = append(ts.ops, op)
}

func (ts *transformStack) pop() {
	if len(ts.ops) > 0 {
		ts.ops = ts.ops[:len(ts.ops)-1]
	}
}

// apply places a leaf solid, innermost transform first.
func (ts *transformStack) apply(k kernel.Kernel, s kernel.Solid) kernel.Solid {
	for i := len(ts.ops) - 1; i >= 0; i-- {
		op := ts.ops[i]
		if op.v == [3]float64{} {
			continue
		}
		switch op.kind {
		case opTranslate:
			s = k.Translate(s, op.v[0], op.v[1], op.v[2])
		case opRotate:
			s = k.Rotate(s, op.v[0], op.v[1], op.v[2])
		}
	}
	return s
}

// Tessellate validates the shape tree, builds one solid from it and
// meshes that solid with the kernel. The tree is never mutated.
func Tessellate(s *Shape, k kernel.Kernel) (*kernel.Mesh, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	solid, err := walkShape(k, s, newTransformStack())
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed: %w", err)
	}
	return mesh, nil
}

func walkShape(k kernel.Kernel, s *Shape, ts *transformStack) (kernel.Solid, error) {
	switch s.Kind {
	case ShapeBox:
		return ts.apply(k, k.Box(s.Vec[0], s.Vec[1], s.Vec[2])), nil

	case ShapeCylinder:
		return ts.apply(k, k.Cylinder(s.Height, s.Radius)), nil

	case ShapeTube:
		outer := k.Cylinder(s.Height, s.Radius)
		bore := k.Cylinder(s.Height*boreMargin, s.Inner)
		return ts.apply(k, k.Difference(outer, bore)), nil

	case ShapeUnion:
		return walkUnion(k, s.Children, ts)

	case ShapeDifference:
		base, err := walkShape(k, s.Children[0], ts)
		if err != nil {
			return nil, err
		}
		for _, c := range s.Children[1:] {
			cut, err := walkShape(k, c, ts)
			if err != nil {
				return nil, err
			}
			base = k.Difference(base, cut)
		}
		return base, nil

	case ShapeTranslate:
		ts.push(transformOp{kind: opTranslate, v: s.Vec})
		defer ts.pop()
		return walkUnion(k, s.Children, ts)

	case ShapeRotate:
		ts.push(transformOp{kind: opRotate, v: s.Vec})
		defer ts.pop()
		return walkUnion(k, s.Children, ts)

	default:
		return nil, fmt.Errorf("unknown shape kind: %v", s.Kind)
	}
}

func walkUnion(k kernel.Kernel, children []*Shape, ts *transformStack) (kernel.Solid, error) {
	var acc kernel.Solid
	for _, c := range children {
		solid, err := walkShape(k, c, ts)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = solid
		} else {
			acc = k.Union(acc, solid)
		}
	}
	return acc, nil
}
