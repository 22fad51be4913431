package docmerge

import (
	"slices"

	"github.com/qmuntal/gltf"
	"github.com/samber/lo"
)

// indexFree lists extensions whose payload holds no index into the
// document, so their data stays valid wherever the object lands.
var indexFree = map[string]bool{
	"KHR_materials_unlit":             true,
	"KHR_materials_emissive_strength": true,
	"KHR_materials_ior":               true,
	"KHR_materials_dispersion":        true,
	"KHR_texture_transform":           true,
	"KHR_mesh_quantization":           true,
}

// extFilter strips extension data that would need index remapping. A
// filter with keep set passes everything through; that is the case when
// the destination is empty and no index moves.
type extFilter struct {
	keep    bool
	dropped map[string]bool
}

func newExtFilter(keep bool) *extFilter {
	return &extFilter{keep: keep, dropped: make(map[string]bool)}
}

func (f *extFilter) apply(ext gltf.Extensions) gltf.Extensions {
	if f.keep || len(ext) == 0 {
		return ext
	}
	var out gltf.Extensions
	for name, v := range ext {
		if !indexFree[name] {
			f.dropped[name] = true
			continue
		}
		if out == nil {
			out = make(gltf.Extensions, len(ext))
		}
		out[name] = v
	}
	return out
}

// names returns the dropped extension names, sorted.
func (f *extFilter) names() []string {
	if len(f.dropped) == 0 {
		return nil
	}
	out := lo.Keys(f.dropped)
	slices.Sort(out)
	return out
}

// declared returns the names of src that may be declared in the
// destination: everything except extensions whose data was dropped.
func (f *extFilter) declared(src []string) []string {
	return lo.Filter(src, func(name string, _ int) bool { return !f.dropped[name] })
}
