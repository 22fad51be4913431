package assembly

import (
	"github.com/qmuntal/gltf"

	"github.com/chazu/tenon/pkg/docgraph"
	"github.com/chazu/tenon/pkg/transform"
)

// Place names and positions every root node of every scene of doc
// according to spec. Scale is left as authored. A root node authored
// with a matrix is converted to TRS first, since readers ignore TRS when
// a matrix is present.
func Place(doc *gltf.Document, spec PartSpec) {
	for _, idx := range docgraph.RootNodes(doc) {
		if idx < 0 || idx >= len(doc.Nodes) {
			continue
		}
		n := doc.Nodes[idx]
		n.Name = spec.Label
		if spec.Translation == nil && spec.RotationDegrees == nil {
			continue
		}
		if docgraph.HasMatrix(n) {
			n.Translation, n.Rotation, n.Scale = docgraph.LocalTRS(n)
			docgraph.ClearMatrix(n)
		}
		if spec.Translation != nil {
			n.Translation = *spec.Translation
		}
		if r := spec.RotationDegrees; r != nil {
			n.Rotation = transform.EulerToQuat(r[0], r[1], r[2])
		}
	}
}
