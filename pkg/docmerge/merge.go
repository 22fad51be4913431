// Package docmerge appends the complete object graph of one glTF document
// to another, rewriting every index so references stay internal to the
// destination.
package docmerge

import (
	"github.com/qmuntal/gltf"
	"github.com/samber/lo"
)

// Stats reports what a Merge appended to the destination.
type Stats struct {
	Scenes    int
	Nodes     int
	Meshes    int
	Accessors int
	Buffers   int

	// DroppedAnimations counts source animations that were not carried over.
	DroppedAnimations int

	// DroppedExtensions names extensions whose data was not carried over
	// because it references other objects by index.
	DroppedExtensions []string
}

// offsets holds the length of each destination list before a merge.
type offsets struct {
	node, mesh, camera, skin    int
	accessor, material, texture int
	sampler, image, view, buf   int
}

func offsetsOf(doc *gltf.Document) offsets {
	return offsets{
		node:     len(doc.Nodes),
		mesh:     len(doc.Meshes),
		camera:   len(doc.Cameras),
		skin:     len(doc.Skins),
		accessor: len(doc.Accessors),
		material: len(doc.Materials),
		texture:  len(doc.Textures),
		sampler:  len(doc.Samplers),
		image:    len(doc.Images),
		view:     len(doc.BufferViews),
		buf:      len(doc.Buffers),
	}
}

func shift(p *int, off int) *int {
	if p == nil {
		return nil
	}
	v := *p + off
	return &v
}

func shiftAll(idx []int, off int) []int {
	if idx == nil {
		return nil
	}
	return lo.Map(idx, func(i int, _ int) int { return i + off })
}

func shiftAttributes(attrs map[string]int, off int) map[string]int {
	if attrs == nil {
		return nil
	}
	out := make(map[string]int, len(attrs))
	for k, v := range attrs {
		out[k] = v + off
	}
	return out
}

// Merge appends every scene, node, mesh, material, texture, image,
// sampler, camera, skin, accessor, buffer view and buffer of src to dst.
// src is not modified; the objects appended to dst are copies whose
// indices point into dst. Buffer bytes are shared with src, not copied.
//
// Scenes are appended as separate scenes; folding them into one is the
// job of the scene consolidator. Animations are not carried over and are
// counted in Stats.DroppedAnimations.
//
// Extension data that holds indices is dropped unless dst is empty, and
// its names are not added to dst's extension lists. Document-level
// extensions of src are only carried into an empty dst.
func Merge(dst, src *gltf.Document) Stats {
	off := offsetsOf(dst)
	ext := newExtFilter(off == offsets{})

	for _, s := range src.Scenes {
		c := *s
		c.Nodes = shiftAll(s.Nodes, off.node)
		c.Extensions = ext.apply(s.Extensions)
		dst.Scenes = append(dst.Scenes, &c)
	}
	for _, n := range src.Nodes {
		c := *n
		c.Children = shiftAll(n.Children, off.node)
		c.Mesh = shift(n.Mesh, off.mesh)
		c.Camera = shift(n.Camera, off.camera)
		c.Skin = shift(n.Skin, off.skin)
		c.Extensions = ext.apply(n.Extensions)
		dst.Nodes = append(dst.Nodes, &c)
	}
	for _, m := range src.Meshes {
		c := *m
		c.Extensions = ext.apply(m.Extensions)
		c.Primitives = make([]*gltf.Primitive, len(m.Primitives))
		for i, p := range m.Primitives {
			cp := *p
			cp.Attributes = shiftAttributes(p.Attributes, off.accessor)
			cp.Indices = shift(p.Indices, off.accessor)
			cp.Material = shift(p.Material, off.material)
			cp.Extensions = ext.apply(p.Extensions)
			if p.Targets != nil {
				cp.Targets = make([]gltf.PrimitiveAttributes, len(p.Targets))
				for j, target := range p.Targets {
					cp.Targets[j] = shiftAttributes(target, off.accessor)
				}
			}
			c.Primitives[i] = &cp
		}
		dst.Meshes = append(dst.Meshes, &c)
	}
	for _, m := range src.Materials {
		dst.Materials = append(dst.Materials, shiftMaterial(m, off.texture, ext))
	}
	for _, t := range src.Textures {
		c := *t
		c.Sampler = shift(t.Sampler, off.sampler)
		c.Source = shift(t.Source, off.image)
		c.Extensions = ext.apply(t.Extensions)
		dst.Textures = append(dst.Textures, &c)
	}
	for _, img := range src.Images {
		c := *img
		c.BufferView = shift(img.BufferView, off.view)
		c.Extensions = ext.apply(img.Extensions)
		dst.Images = append(dst.Images, &c)
	}
	for _, s := range src.Samplers {
		c := *s
		c.Extensions = ext.apply(s.Extensions)
		dst.Samplers = append(dst.Samplers, &c)
	}
	for _, cam := range src.Cameras {
		c := *cam
		c.Extensions = ext.apply(cam.Extensions)
		dst.Cameras = append(dst.Cameras, &c)
	}
	for _, s := range src.Skins {
		c := *s
		c.InverseBindMatrices = shift(s.InverseBindMatrices, off.accessor)
		c.Skeleton = shift(s.Skeleton, off.node)
		c.Joints = shiftAll(s.Joints, off.node)
		c.Extensions = ext.apply(s.Extensions)
		dst.Skins = append(dst.Skins, &c)
	}
	for _, a := range src.Accessors {
		c := *a
		c.BufferView = shift(a.BufferView, off.view)
		c.Extensions = ext.apply(a.Extensions)
		if a.Sparse != nil {
			sp := *a.Sparse
			sp.Indices.BufferView += off.view
			sp.Values.BufferView += off.view
			c.Sparse = &sp
		}
		dst.Accessors = append(dst.Accessors, &c)
	}
	for _, bv := range src.BufferViews {
		c := *bv
		c.Buffer += off.buf
		c.Extensions = ext.apply(bv.Extensions)
		dst.BufferViews = append(dst.BufferViews, &c)
	}
	for _, b := range src.Buffers {
		c := *b
		c.Extensions = ext.apply(b.Extensions)
		dst.Buffers = append(dst.Buffers, &c)
	}

	if ext.keep {
		for name, v := range src.Extensions {
			if dst.Extensions == nil {
				dst.Extensions = make(gltf.Extensions, len(src.Extensions))
			}
			dst.Extensions[name] = v
		}
	} else {
		for name := range src.Extensions {
			ext.dropped[name] = true
		}
	}

	if used := ext.declared(src.ExtensionsUsed); len(used) > 0 {
		dst.ExtensionsUsed = lo.Union(dst.ExtensionsUsed, used)
	}
	if req := ext.declared(src.ExtensionsRequired); len(req) > 0 {
		dst.ExtensionsRequired = lo.Union(dst.ExtensionsRequired, req)
	}

	return Stats{
		Scenes:            len(src.Scenes),
		Nodes:             len(src.Nodes),
		Meshes:            len(src.Meshes),
		Accessors:         len(src.Accessors),
		Buffers:           len(src.Buffers),
		DroppedAnimations: len(src.Animations),
		DroppedExtensions: ext.names(),
	}
}

func shiftMaterial(m *gltf.Material, off int, ext *extFilter) *gltf.Material {
	c := *m
	c.Extensions = ext.apply(m.Extensions)
	if m.PBRMetallicRoughness != nil {
		pbr := *m.PBRMetallicRoughness
		pbr.Extensions = ext.apply(pbr.Extensions)
		pbr.BaseColorTexture = shiftTextureInfo(pbr.BaseColorTexture, off, ext)
		pbr.MetallicRoughnessTexture = shiftTextureInfo(pbr.MetallicRoughnessTexture, off, ext)
		c.PBRMetallicRoughness = &pbr
	}
	if m.NormalTexture != nil {
		nt := *m.NormalTexture
		nt.Index = shift(nt.Index, off)
		nt.Extensions = ext.apply(nt.Extensions)
		c.NormalTexture = &nt
	}
	if m.OcclusionTexture != nil {
		ot := *m.OcclusionTexture
		ot.Index = shift(ot.Index, off)
		ot.Extensions = ext.apply(ot.Extensions)
		c.OcclusionTexture = &ot
	}
	c.EmissiveTexture = shiftTextureInfo(m.EmissiveTexture, off, ext)
	return &c
}

func shiftTextureInfo(ti *gltf.TextureInfo, off int, ext *extFilter) *gltf.TextureInfo {
	if ti == nil {
		return nil
	}
	c := *ti
	c.Index += off
	c.Extensions = ext.apply(ti.Extensions)
	return &c
}
