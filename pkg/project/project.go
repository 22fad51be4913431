// Package project works on the directory layout tenon reads: one
// directory of part files per project under a base directory.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// Extensions recognized in project directories (lowercase, with dot).
var (
	PartExtensions  = []string{".glb"}
	ImageExtensions = []string{".png", ".jpg", ".jpeg"}
)

// Project is one directory of parts.
type Project struct {
	Name   string   `json:"name"`
	Parts  []string `json:"parts"`
	Images []string `json:"images"`
}

// Dir returns the project directory under base.
func (p Project) Dir(base string) string {
	return filepath.Join(base, p.Name)
}

// List returns the projects under base in name order. Hidden directories
// and node_modules are skipped, as are directories without parts.
func List(base string) ([]Project, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	var out []Project
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") || e.Name() == "node_modules" {
			continue
		}
		p, err := read(base, e.Name())
		if err != nil {
			return nil, err
		}
		if len(p.Parts) > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

// Select returns the projects named in names, in that order. An empty
// names list returns every project. Unknown names are an error.
func Select(base string, names []string) ([]Project, error) {
	all, err := List(base)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return all, nil
	}
	byName := lo.KeyBy(all, func(p Project) string { return p.Name })
	out := make([]Project, 0, len(names))
	for _, n := range names {
		p, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("project: %q not found in %s", n, base)
		}
		out = append(out, p)
	}
	return out, nil
}

func read(base, name string) (Project, error) {
	files, err := os.ReadDir(filepath.Join(base, name))
	if err != nil {
		return Project{}, fmt.Errorf("project: %w", err)
	}
	p := Project{Name: name, Parts: []string{}, Images: []string{}}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		switch ext := strings.ToLower(filepath.Ext(f.Name())); {
		case lo.Contains(PartExtensions, ext):
			p.Parts = append(p.Parts, f.Name())
		case lo.Contains(ImageExtensions, ext):
			p.Images = append(p.Images, f.Name())
		}
	}
	return p, nil
}

// normExts lowercases extensions and adds a missing leading dot.
func normExts(exts []string) []string {
	return lo.Map(exts, func(e string, _ int) string {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		return e
	})
}
