// Package consolidate reduces a merged glTF document to a single scene and
// a single binary buffer, the layout a GLB container can hold.
package consolidate

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
)

// ErrStructural reports a reference that cannot be resolved while
// consolidating. The document must not be written.
var ErrStructural = errors.New("structural error")

// align is the byte alignment of every buffer segment.
const align = 4

// Scenes moves the root nodes of every scene after the first into the
// first scene, in scene order, and replaces the scene list with that one
// scene. A node listed by several scenes appears once, at its first
// position. Document.Scene is reset to 0. No node is created or removed.
// A document without scenes is left unchanged.
func Scenes(doc *gltf.Document) {
	if len(doc.Scenes) == 0 {
		return
	}
	primary := doc.Scenes[0]
	if primary == nil {
		primary = &gltf.Scene{}
	}
	seen := make(map[int]bool)
	var roots []int
	for _, s := range doc.Scenes {
		if s == nil {
			continue
		}
		for _, n := range s.Nodes {
			if !seen[n] {
				seen[n] = true
				roots = append(roots, n)
			}
		}
	}
	primary.Nodes = roots
	doc.Scenes = []*gltf.Scene{primary}
	zero := 0
	doc.Scene = &zero
}

// Buffers appends the bytes of every buffer after the first to the first
// one, repoints each buffer view at buffer 0 with its offset shifted, and
// replaces the buffer list with that one buffer. Segments start on
// 4-byte boundaries. The surviving buffer loses its URI so a binary
// writer embeds it.
//
// Every accessor, sparse accessor, image and buffer view reference is
// checked first; an unresolvable one aborts with ErrStructural before
// anything is modified.
func Buffers(doc *gltf.Document) error {
	if err := checkRefs(doc); err != nil {
		return err
	}
	if len(doc.Buffers) == 0 {
		return nil
	}

	survivor := doc.Buffers[0]
	data := make([]byte, 0, totalLength(doc.Buffers))
	data = append(data, survivor.Data...)

	// bases[i] is where buffer i starts inside the survivor.
	bases := make([]int, len(doc.Buffers))
	for i := 1; i < len(doc.Buffers); i++ {
		for len(data)%align != 0 {
			data = append(data, 0)
		}
		bases[i] = len(data)
		data = append(data, doc.Buffers[i].Data...)
	}

	for _, bv := range doc.BufferViews {
		bv.ByteOffset += bases[bv.Buffer]
		bv.Buffer = 0
	}

	survivor.Data = data
	survivor.ByteLength = len(data)
	survivor.URI = ""
	doc.Buffers = []*gltf.Buffer{survivor}
	return nil
}

func totalLength(bufs []*gltf.Buffer) int {
	n := 0
	for _, b := range bufs {
		n += len(b.Data) + align
	}
	return n
}

// checkRefs verifies every path to a buffer resolves before Buffers
// rewrites anything. Discarded buffers are checked highest index first.
func checkRefs(doc *gltf.Document) error {
	nViews := len(doc.BufferViews)
	for i, a := range doc.Accessors {
		if a.BufferView != nil && (*a.BufferView < 0 || *a.BufferView >= nViews) {
			return fmt.Errorf("consolidate: accessor %d: buffer view %d out of range: %w", i, *a.BufferView, ErrStructural)
		}
		if sp := a.Sparse; sp != nil {
			if sp.Indices.BufferView < 0 || sp.Indices.BufferView >= nViews ||
				sp.Values.BufferView < 0 || sp.Values.BufferView >= nViews {
				return fmt.Errorf("consolidate: accessor %d: sparse buffer view out of range: %w", i, ErrStructural)
			}
		}
	}
	for i, img := range doc.Images {
		if img.BufferView != nil && (*img.BufferView < 0 || *img.BufferView >= nViews) {
			return fmt.Errorf("consolidate: image %d: buffer view %d out of range: %w", i, *img.BufferView, ErrStructural)
		}
	}
	for i, bv := range doc.BufferViews {
		if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
			return fmt.Errorf("consolidate: buffer view %d: buffer %d out of range: %w", i, bv.Buffer, ErrStructural)
		}
	}
	for i := len(doc.Buffers) - 1; i >= 0; i-- {
		b := doc.Buffers[i]
		if b == nil {
			return fmt.Errorf("consolidate: buffer %d is nil: %w", i, ErrStructural)
		}
		if len(b.Data) < b.ByteLength {
			return fmt.Errorf("consolidate: buffer %d: have %d bytes, want %d: %w", i, len(b.Data), b.ByteLength, ErrStructural)
		}
	}
	return nil
}
