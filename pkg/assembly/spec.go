// Package assembly composes part documents into one consolidated glTF
// document per assembly and writes it to disk.
//
// An assembly is processed strictly in order: every part is loaded,
// placed and merged into an accumulator, then scenes are consolidated,
// then buffers, then the result is validated and written. Distinct
// assemblies share nothing and may run in parallel (see RunBatch).
package assembly

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// PartSpec places one part file inside an assembly.
type PartSpec struct {
	// SourceFile is the part file name, relative to the assembly's part
	// directory.
	SourceFile string `yaml:"file" toml:"file"`

	// Label becomes the name of every root node of the part.
	Label string `yaml:"label" toml:"label"`

	// Translation is the part's position in meters. Nil leaves the
	// authored translation in place.
	Translation *[3]float64 `yaml:"t,omitempty" toml:"t,omitempty"`

	// RotationDegrees is an intrinsic X, Y, Z Euler rotation in degrees.
	// Nil leaves the authored rotation in place.
	RotationDegrees *[3]float64 `yaml:"r,omitempty" toml:"r,omitempty"`
}

// Normalize trims whitespace and checks required fields and numeric
// values.
func (p *PartSpec) Normalize() error {
	p.SourceFile = strings.TrimSpace(p.SourceFile)
	p.Label = strings.TrimSpace(p.Label)
	if p.SourceFile == "" {
		return fmt.Errorf("part %q: file is required", p.Label)
	}
	if p.Label == "" {
		return fmt.Errorf("part %q: label is required", p.SourceFile)
	}
	if filepath.IsAbs(p.SourceFile) {
		return fmt.Errorf("part %q: file %q must be relative to the assembly directory", p.Label, p.SourceFile)
	}
	if p.Translation != nil && !finite(p.Translation[:]) {
		return fmt.Errorf("part %q: translation %v is not finite", p.Label, *p.Translation)
	}
	if p.RotationDegrees != nil && !finite(p.RotationDegrees[:]) {
		return fmt.Errorf("part %q: rotation %v is not finite", p.Label, *p.RotationDegrees)
	}
	return nil
}

func finite(vs []float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Config is one named assembly: an ordered list of parts read from one
// directory.
type Config struct {
	Name string `yaml:"name" toml:"name"`

	// Dir is the part directory relative to the base directory. Empty
	// means Name.
	Dir string `yaml:"dir,omitempty" toml:"dir,omitempty"`

	Parts []PartSpec `yaml:"parts" toml:"parts"`
}

// PartDir returns the directory holding the assembly's part files.
func (c Config) PartDir(base string) string {
	dir := c.Dir
	if dir == "" {
		dir = c.Name
	}
	return filepath.Join(base, dir)
}

// Normalize validates the config and every part. Duplicate labels are
// allowed; DuplicateLabels reports them.
func (c *Config) Normalize() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("assembly: name is required")
	}
	if strings.ContainsAny(c.Name, `/\`) {
		return fmt.Errorf("assembly %q: name must not contain path separators", c.Name)
	}
	if len(c.Parts) == 0 {
		return fmt.Errorf("assembly %q: no parts", c.Name)
	}
	for i := range c.Parts {
		if err := c.Parts[i].Normalize(); err != nil {
			return fmt.Errorf("assembly %q: part %d: %w", c.Name, i, err)
		}
	}
	return nil
}

// DuplicateLabels returns labels used by more than one part, in first
// use order.
func (c Config) DuplicateLabels() []string {
	seen := make(map[string]int)
	var dups []string
	for _, p := range c.Parts {
		seen[p.Label]++
		if seen[p.Label] == 2 {
			dups = append(dups, p.Label)
		}
	}
	return dups
}

// OutputName is the file name of the assembled document for the given
// extension ("glb" or "gltf").
func (c Config) OutputName(ext string) string {
	return c.Name + "_assembled." + ext
}
