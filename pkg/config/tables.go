package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chazu/tenon/pkg/assembly"
	"github.com/chazu/tenon/pkg/engine"
)

// tableFile is the layout of a YAML assembly table.
type tableFile struct {
	Assemblies []assembly.Config `yaml:"assemblies"`
}

// LoadTables reads every table file and returns the assemblies in file
// order. Every config is validated. An assembly name declared twice,
// within or across files, is an error. Duplicate part labels are logged
// and kept.
func LoadTables(logger *slog.Logger, paths ...string) ([]assembly.Config, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var all []assembly.Config
	seen := make(map[string]string)
	for _, path := range paths {
		cfgs, err := LoadTable(path)
		if err != nil {
			return nil, err
		}
		for _, cfg := range cfgs {
			if prev, ok := seen[cfg.Name]; ok {
				return nil, fmt.Errorf("config: assembly %q declared in %s and %s", cfg.Name, prev, path)
			}
			seen[cfg.Name] = path
			if dups := cfg.DuplicateLabels(); len(dups) > 0 {
				logger.Warn("duplicate part labels", "assembly", cfg.Name, "labels", strings.Join(dups, ", "))
			}
			all = append(all, cfg)
		}
	}
	return all, nil
}

// LoadTable reads one table file, choosing the format by extension.
func LoadTable(path string) ([]assembly.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var cfgs []assembly.Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		cfgs, err = parseYAML(data)
	case ".lisp", ".zy":
		cfgs, err = parseLisp(string(data))
	default:
		return nil, fmt.Errorf("config: %s: unsupported table format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfgs, nil
}

func parseYAML(data []byte) ([]assembly.Config, error) {
	var tf tableFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	for i := range tf.Assemblies {
		if err := tf.Assemblies[i].Normalize(); err != nil {
			return nil, err
		}
	}
	return tf.Assemblies, nil
}

func parseLisp(source string) ([]assembly.Config, error) {
	cfgs, evalErrs, err := engine.NewEngine().Evaluate(source)
	if err != nil {
		return nil, err
	}
	if len(evalErrs) > 0 {
		msgs := make([]error, len(evalErrs))
		for i, e := range evalErrs {
			msgs[i] = e
		}
		return nil, errors.Join(msgs...)
	}
	return cfgs, nil
}

// MarshalTable renders configs in the YAML table layout.
func MarshalTable(cfgs []assembly.Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(tableFile{Assemblies: cfgs}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
