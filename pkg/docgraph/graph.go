// Package docgraph provides read-only traversal and structural validation
// of glTF documents. A document is treated as a graph: scenes own root
// nodes, nodes own children and reference meshes, primitives reference
// accessors, accessors reach buffers through buffer views.
package docgraph

import (
	"github.com/qmuntal/gltf"

	"github.com/chazu/tenon/pkg/transform"
)

// RootNodes returns the root node indices of every scene, in scene order.
// A node listed by more than one scene is returned once.
func RootNodes(doc *gltf.Document) []int {
	seen := make(map[int]bool)
	var roots []int
	for _, scene := range doc.Scenes {
		if scene == nil {
			continue
		}
		for _, idx := range scene.Nodes {
			if seen[idx] {
				continue
			}
			seen[idx] = true
			roots = append(roots, idx)
		}
	}
	return roots
}

// SceneNodeCount returns the number of root nodes in the given scene, or
// zero if the scene does not exist.
func SceneNodeCount(doc *gltf.Document, scene int) int {
	if scene < 0 || scene >= len(doc.Scenes) || doc.Scenes[scene] == nil {
		return 0
	}
	return len(doc.Scenes[scene].Nodes)
}

// Walk visits every node reachable from the roots of the given scene,
// depth first, parents before children. depth is 0 for root nodes.
// Out-of-range indices and already visited nodes are skipped, so a
// malformed hierarchy cannot loop forever.
func Walk(doc *gltf.Document, scene int, fn func(idx, depth int, n *gltf.Node)) {
	if scene < 0 || scene >= len(doc.Scenes) || doc.Scenes[scene] == nil {
		return
	}
	visited := make(map[int]bool)
	var visit func(idx, depth int)
	visit = func(idx, depth int) {
		if idx < 0 || idx >= len(doc.Nodes) || visited[idx] {
			return
		}
		visited[idx] = true
		n := doc.Nodes[idx]
		fn(idx, depth, n)
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, root := range doc.Scenes[scene].Nodes {
		visit(root, 0)
	}
}

// NodeInfo is a flattened view of one node's local transform.
type NodeInfo struct {
	Index       int
	Depth       int
	Name        string
	Translation [3]float64
	Rotation    [4]float64
	Scale       [3]float64
	Mesh        *int
}

// Describe lists every node of every scene with its local TRS. Unset
// rotation and scale read as identity.
func Describe(doc *gltf.Document) []NodeInfo {
	var out []NodeInfo
	for s := range doc.Scenes {
		Walk(doc, s, func(idx, depth int, n *gltf.Node) {
			t, r, sc := LocalTRS(n)
			out = append(out, NodeInfo{
				Index:       idx,
				Depth:       depth,
				Name:        n.Name,
				Translation: t,
				Rotation:    r,
				Scale:       sc,
				Mesh:        n.Mesh,
			})
		})
	}
	return out
}

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// HasMatrix reports whether the node carries a non-identity matrix, in
// which case its TRS properties are ignored by readers.
func HasMatrix(n *gltf.Node) bool {
	return n.Matrix != identityMatrix && n.Matrix != [16]float64{}
}

// ClearMatrix resets the node's matrix to identity so TRS applies.
func ClearMatrix(n *gltf.Node) {
	n.Matrix = identityMatrix
}

// LocalTRS returns the node's effective local transform. A node authored
// with a matrix is decomposed.
func LocalTRS(n *gltf.Node) (t [3]float64, r [4]float64, s [3]float64) {
	if HasMatrix(n) {
		return transform.Decompose(n.Matrix)
	}
	t = n.Translation
	r = transform.ToArray(transform.FromArray(n.Rotation))
	s = n.Scale
	if s == [3]float64{} {
		s = [3]float64{1, 1, 1}
	}
	return t, r, s
}

// AccessorBuffer resolves the buffer index behind an accessor. ok is false
// when the accessor has no buffer view or a reference is out of range.
func AccessorBuffer(doc *gltf.Document, a *gltf.Accessor) (buffer int, ok bool) {
	if a == nil || a.BufferView == nil {
		return 0, false
	}
	bv := *a.BufferView
	if bv < 0 || bv >= len(doc.BufferViews) || doc.BufferViews[bv] == nil {
		return 0, false
	}
	b := doc.BufferViews[bv].Buffer
	if b < 0 || b >= len(doc.Buffers) {
		return 0, false
	}
	return b, true
}
