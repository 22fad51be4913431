// Package kernel defines the solid modeling interface that part
// generation meshes shapes through. The sdfx subpackage is the only
// implementation; tessellate and partgen depend on this interface so
// tests can substitute a recording or stub kernel.
package kernel

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds solids and meshes them. Primitives are centered on the
// origin and cylinder axes run along Z; rotation angles are in degrees.
type Kernel interface {
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid

	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid

	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid

	ToMesh(s Solid) (*Mesh, error)
}
