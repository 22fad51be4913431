package assembly

import (
	"fmt"
	"path/filepath"

	"github.com/jinzhu/copier"
	"github.com/qmuntal/gltf"
)

// Loader opens part documents. A file requested more than once is parsed
// once; each Load returns an independent deep copy. A Loader is not safe
// for concurrent use.
type Loader struct {
	open  func(string) (*gltf.Document, error)
	cache map[string]*gltf.Document
	hits  int
}

// NewLoader returns a Loader reading files with gltf.Open.
func NewLoader() *Loader {
	return &Loader{open: gltf.Open, cache: make(map[string]*gltf.Document)}
}

// Load returns a document the caller may mutate freely.
func (l *Loader) Load(path string) (*gltf.Document, error) {
	key := filepath.Clean(path)
	src, ok := l.cache[key]
	if ok {
		l.hits++
	} else {
		doc, err := l.open(key)
		if err != nil {
			return nil, err
		}
		l.cache[key] = doc
		src = doc
	}

	var doc gltf.Document
	if err := copier.CopyWithOption(&doc, src, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copy %s: %w", key, err)
	}
	return &doc, nil
}

// CacheHits returns how many loads were served without parsing.
func (l *Loader) CacheHits() int {
	return l.hits
}
