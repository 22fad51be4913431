package docgraph

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/samber/lo"
)

// ValidationSeverity indicates whether a finding blocks writing the
// document or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks writing
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding. Path names the
// offending object, e.g. "nodes[3]" or "accessors[12]"; it is empty for
// document-level findings.
type ValidationError struct {
	Path     string
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Path, e.Message)
}

// ValidationResult separates blocking findings from advisory ones.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether there are no blocking findings.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs the structural checks: every index reference resolves
// inside the document and the node hierarchy is a forest. It never
// mutates the document.
func Validate(doc *gltf.Document) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateReferences(doc)...)
	errs = append(errs, validateHierarchy(doc)...)
	errs = append(errs, validateNames(doc)...)
	return errs
}

// ValidateAssembled runs the structural checks plus the constraints of a
// consolidated assembly: exactly one scene, at most one buffer, and every
// accessor resolving to buffer 0.
func ValidateAssembled(doc *gltf.Document) ValidationResult {
	all := append(Validate(doc), validateConsolidated(doc)...)

	var result ValidationResult
	for _, e := range all {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, e)
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	return result
}

func refError(path, what string, idx, n int) ValidationError {
	return ValidationError{
		Path:     path,
		Message:  fmt.Sprintf("%s index %d out of range (have %d)", what, idx, n),
		Severity: SeverityError,
	}
}

func inRange(idx, n int) bool {
	return idx >= 0 && idx < n
}

// validateReferences checks every integer reference in the document.
func validateReferences(doc *gltf.Document) []ValidationError {
	var errs []ValidationError
	check := func(path, what string, idx, n int) {
		if !inRange(idx, n) {
			errs = append(errs, refError(path, what, idx, n))
		}
	}
	checkPtr := func(path, what string, idx *int, n int) {
		if idx != nil {
			check(path, what, *idx, n)
		}
	}

	nNodes, nMeshes, nAcc := len(doc.Nodes), len(doc.Meshes), len(doc.Accessors)
	nViews, nBufs := len(doc.BufferViews), len(doc.Buffers)

	if doc.Scene != nil {
		check("scene", "scene", *doc.Scene, len(doc.Scenes))
	}
	for i, s := range doc.Scenes {
		path := fmt.Sprintf("scenes[%d]", i)
		seen := make(map[int]bool, len(s.Nodes))
		for _, n := range s.Nodes {
			check(path, "node", n, nNodes)
			if seen[n] {
				errs = append(errs, ValidationError{
					Path:     path,
					Message:  fmt.Sprintf("root node %d listed more than once", n),
					Severity: SeverityError,
				})
			}
			seen[n] = true
		}
	}
	for i, n := range doc.Nodes {
		path := fmt.Sprintf("nodes[%d]", i)
		for _, c := range n.Children {
			check(path, "child node", c, nNodes)
		}
		checkPtr(path, "mesh", n.Mesh, nMeshes)
		checkPtr(path, "camera", n.Camera, len(doc.Cameras))
		checkPtr(path, "skin", n.Skin, len(doc.Skins))
	}
	for i, m := range doc.Meshes {
		for j, p := range m.Primitives {
			path := fmt.Sprintf("meshes[%d].primitives[%d]", i, j)
			for name, a := range p.Attributes {
				check(path, "attribute "+name+" accessor", a, nAcc)
			}
			for _, target := range p.Targets {
				for name, a := range target {
					check(path, "target "+name+" accessor", a, nAcc)
				}
			}
			checkPtr(path, "indices accessor", p.Indices, nAcc)
			checkPtr(path, "material", p.Material, len(doc.Materials))
		}
	}
	for i, m := range doc.Materials {
		path := fmt.Sprintf("materials[%d]", i)
		for _, tex := range materialTextures(m) {
			check(path, "texture", tex, len(doc.Textures))
		}
	}
	for i, t := range doc.Textures {
		path := fmt.Sprintf("textures[%d]", i)
		checkPtr(path, "sampler", t.Sampler, len(doc.Samplers))
		checkPtr(path, "image", t.Source, len(doc.Images))
	}
	for i, img := range doc.Images {
		checkPtr(fmt.Sprintf("images[%d]", i), "buffer view", img.BufferView, nViews)
	}
	for i, a := range doc.Accessors {
		path := fmt.Sprintf("accessors[%d]", i)
		checkPtr(path, "buffer view", a.BufferView, nViews)
		if a.Sparse != nil {
			check(path, "sparse indices buffer view", a.Sparse.Indices.BufferView, nViews)
			check(path, "sparse values buffer view", a.Sparse.Values.BufferView, nViews)
		}
	}
	for i, bv := range doc.BufferViews {
		check(fmt.Sprintf("bufferViews[%d]", i), "buffer", bv.Buffer, nBufs)
	}
	for i, s := range doc.Skins {
		path := fmt.Sprintf("skins[%d]", i)
		checkPtr(path, "inverse bind matrices accessor", s.InverseBindMatrices, nAcc)
		checkPtr(path, "skeleton node", s.Skeleton, nNodes)
		for _, j := range s.Joints {
			check(path, "joint node", j, nNodes)
		}
	}
	return errs
}

// materialTextures lists the texture indices a material references.
func materialTextures(m *gltf.Material) []int {
	var out []int
	if pbr := m.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorTexture != nil {
			out = append(out, pbr.BaseColorTexture.Index)
		}
		if pbr.MetallicRoughnessTexture != nil {
			out = append(out, pbr.MetallicRoughnessTexture.Index)
		}
	}
	if m.NormalTexture != nil && m.NormalTexture.Index != nil {
		out = append(out, *m.NormalTexture.Index)
	}
	if m.OcclusionTexture != nil && m.OcclusionTexture.Index != nil {
		out = append(out, *m.OcclusionTexture.Index)
	}
	if m.EmissiveTexture != nil {
		out = append(out, m.EmissiveTexture.Index)
	}
	return out
}

// validateHierarchy checks that no node has two parents and that the
// child relation has no cycles, using DFS with 3-color marking.
func validateHierarchy(doc *gltf.Document) []ValidationError {
	var errs []ValidationError

	parent := make(map[int]int)
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			if p, ok := parent[c]; ok && p != i {
				errs = append(errs, ValidationError{
					Path:     fmt.Sprintf("nodes[%d]", c),
					Message:  fmt.Sprintf("node has two parents (%d and %d)", p, i),
					Severity: SeverityError,
				})
				continue
			}
			parent[c] = i
		}
	}

	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(doc.Nodes))
	var visit func(idx int) bool
	visit = func(idx int) bool {
		switch color[idx] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				Path:     fmt.Sprintf("nodes[%d]", idx),
				Message:  "cycle detected in node hierarchy",
				Severity: SeverityError,
			})
			return true
		}
		color[idx] = gray
		for _, c := range doc.Nodes[idx].Children {
			if inRange(c, len(doc.Nodes)) && visit(c) {
				return true
			}
		}
		color[idx] = black
		return false
	}
	for i := range doc.Nodes {
		if color[i] == white && visit(i) {
			break
		}
	}
	return errs
}

// validateNames warns about root nodes sharing a name. Labels are
// cosmetic, so duplicates never block writing.
func validateNames(doc *gltf.Document) []ValidationError {
	names := lo.Map(RootNodes(doc), func(idx int, _ int) string {
		if !inRange(idx, len(doc.Nodes)) {
			return ""
		}
		return doc.Nodes[idx].Name
	})
	names = lo.Filter(names, func(name string, _ int) bool { return name != "" })

	var warns []ValidationError
	for _, dup := range lo.FindDuplicates(names) {
		warns = append(warns, ValidationError{
			Message:  fmt.Sprintf("root node name %q is used more than once", dup),
			Severity: SeverityWarning,
		})
	}
	return warns
}

// validateConsolidated checks the single-scene / single-buffer layout
// required for a binary container.
func validateConsolidated(doc *gltf.Document) []ValidationError {
	var errs []ValidationError
	if len(doc.Scenes) != 1 {
		errs = append(errs, ValidationError{
			Message:  fmt.Sprintf("expected exactly one scene, have %d", len(doc.Scenes)),
			Severity: SeverityError,
		})
	}
	if len(doc.Buffers) > 1 {
		errs = append(errs, ValidationError{
			Message:  fmt.Sprintf("expected at most one buffer, have %d", len(doc.Buffers)),
			Severity: SeverityError,
		})
	}
	for i, a := range doc.Accessors {
		if a.BufferView == nil {
			continue
		}
		if b, ok := AccessorBuffer(doc, a); !ok || b != 0 {
			errs = append(errs, ValidationError{
				Path:     fmt.Sprintf("accessors[%d]", i),
				Message:  "accessor does not resolve to buffer 0",
				Severity: SeverityError,
			})
		}
	}
	return errs
}
