package tessellate

import (
	"fmt"
	"math"
)

// ShapeKind identifies a node in a shape tree.
type ShapeKind int

const (
	ShapeBox ShapeKind = iota
	ShapeCylinder
	ShapeTube
	ShapeUnion
	ShapeDifference
	ShapeTranslate
	ShapeRotate
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeCylinder:
		return "cylinder"
	case ShapeTube:
		return "tube"
	case ShapeUnion:
		return "union"
	case ShapeDifference:
		return "difference"
	case ShapeTranslate:
		return "translate"
	case ShapeRotate:
		return "rotate"
	default:
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
}

// Shape is a constructive solid geometry tree. Leaves (box, cylinder, tube)
// are centered on the origin with cylinder axes along Z. Translate and
// rotate apply to the union of their children.
type Shape struct {
	Kind ShapeKind

	// Vec holds box dimensions, a translation, or rotation degrees.
	Vec [3]float64

	// Cylinder and tube dimensions. Inner is the tube bore radius.
	Height float64
	Radius float64
	Inner  float64

	Children []*Shape
}

// Box returns a box with the given dimensions.
func Box(x, y, z float64) *Shape {
	return &Shape{Kind: ShapeBox, Vec: [3]float64{x, y, z}}
}

// Cylinder returns a solid cylinder.
func Cylinder(height, radius float64) *Shape {
	return &Shape{Kind: ShapeCylinder, Height: height, Radius: radius}
}

// Tube returns a cylinder with a coaxial bore.
func Tube(height, outer, inner float64) *Shape {
	return &Shape{Kind: ShapeTube, Height: height, Radius: outer, Inner: inner}
}

// Union returns the union of shapes.
func Union(children ...*Shape) *Shape {
	return &Shape{Kind: ShapeUnion, Children: children}
}

// Difference returns base with every cut removed.
func Difference(base *Shape, cuts ...*Shape) *Shape {
	return &Shape{Kind: ShapeDifference, Children: append([]*Shape{base}, cuts...)}
}

// Translate moves the union of children by (x, y, z).
func Translate(x, y, z float64, children ...*Shape) *Shape {
	return &Shape{Kind: ShapeTranslate, Vec: [3]float64{x, y, z}, Children: children}
}

// Rotate rotates the union of children by Euler angles in degrees.
func Rotate(x, y, z float64, children ...*Shape) *Shape {
	return &Shape{Kind: ShapeRotate, Vec: [3]float64{x, y, z}, Children: children}
}

// Validate checks dimensions and arity over the whole tree. Kernels may
// panic on degenerate input, so Tessellate calls this first.
func (s *Shape) Validate() error {
	if s == nil {
		return fmt.Errorf("nil shape")
	}
	switch s.Kind {
	case ShapeBox:
		for i, v := range s.Vec {
			if !positive(v) {
				return fmt.Errorf("box: dimension %d is %v, want > 0", i, v)
			}
		}
	case ShapeCylinder:
		if !positive(s.Height) || !positive(s.Radius) {
			return fmt.Errorf("cylinder: height %v radius %v, want > 0", s.Height, s.Radius)
		}
	case ShapeTube:
		if !positive(s.Height) || !positive(s.Radius) || !positive(s.Inner) {
			return fmt.Errorf("tube: height %v radius %v inner %v, want > 0", s.Height, s.Radius, s.Inner)
		}
		if s.Inner >= s.Radius {
			return fmt.Errorf("tube: inner radius %v must be less than outer %v", s.Inner, s.Radius)
		}
	case ShapeUnion, ShapeTranslate, ShapeRotate:
		if len(s.Children) == 0 {
			return fmt.Errorf("%s: no children", s.Kind)
		}
		for i, v := range s.Vec {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%s: component %d is not finite", s.Kind, i)
			}
		}
	case ShapeDifference:
		if len(s.Children) < 2 {
			return fmt.Errorf("difference: need a base and at least one cut")
		}
	default:
		return fmt.Errorf("unknown shape kind %v", s.Kind)
	}
	for _, c := range s.Children {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.Kind, err)
		}
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
