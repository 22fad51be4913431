package engine

import (
	"fmt"
	"strconv"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/tenon/pkg/assembly"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a translation or rotation triple.
type sexpVec3 struct {
	vec [3]float64
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpPart wraps a PartSpec returned by `part` and consumed by `assembly`.
type sexpPart struct {
	spec assembly.PartSpec
}

func (p *sexpPart) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(part %q %q)", p.spec.SourceFile, p.spec.Label)
}
func (p *sexpPart) Type() *zygo.RegisteredType { return nil }

// sexpAssembly is the value of an `assembly` form.
type sexpAssembly struct {
	name  string
	parts int
}

func (a *sexpAssembly) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(assembly %q %d parts)", a.name, a.parts)
}
func (a *sexpAssembly) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a triple from a sexpVec3 or a three-number list/array.
func toVec3(s zygo.Sexp) ([3]float64, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil || len(items) != 3 {
		return [3]float64{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
	}
	var out [3]float64
	for i, item := range items {
		if out[i], err = toFloat64(item); err != nil {
			return [3]float64{}, err
		}
	}
	return out, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// collectParts flattens parts and arbitrarily nested lists of parts.
func collectParts(s zygo.Sexp, into []assembly.PartSpec) ([]assembly.PartSpec, error) {
	if p, ok := s.(*sexpPart); ok {
		return append(into, p.spec), nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, fmt.Errorf("expected part or list of parts, got %T (%s)", s, s.SexpString(nil))
	}
	for _, item := range items {
		if into, err = collectParts(item, into); err != nil {
			return nil, err
		}
	}
	return into, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// collector accumulates the assemblies declared by one evaluation.
type collector struct {
	configs []assembly.Config
	names   map[string]bool
}

func (c *collector) add(cfg assembly.Config) error {
	if c.names == nil {
		c.names = make(map[string]bool)
	}
	if c.names[cfg.Name] {
		return fmt.Errorf("assembly %q declared twice", cfg.Name)
	}
	c.names[cfg.Name] = true
	c.configs = append(c.configs, cfg)
	return nil
}

// registerBuiltins installs the assembly DSL builtins into a zygomys
// environment. Declared assemblies are appended to col.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, col *collector) {

	// -----------------------------------------------------------------------
	// (vec3 0 0.028 0)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var v [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			v[i] = f
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (label "ConRod_" 1) => "ConRod_1"
	// -----------------------------------------------------------------------
	env.AddFunction("label", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var sb strings.Builder
		for _, a := range args {
			switch v := a.(type) {
			case *zygo.SexpStr:
				sb.WriteString(v.S)
			case *zygo.SexpInt:
				sb.WriteString(strconv.FormatInt(v.Val, 10))
			case *zygo.SexpFloat:
				sb.WriteString(strconv.FormatFloat(v.Val, 'g', -1, 64))
			default:
				return zygo.SexpNull, fmt.Errorf("label: cannot format %T", a)
			}
		}
		return &zygo.SexpStr{S: sb.String()}, nil
	})

	// -----------------------------------------------------------------------
	// (part "ROD.glb" "Damper Rod" :t (vec3 0 0.028 0) :r (vec3 0 0 50))
	// -----------------------------------------------------------------------
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("part requires a file and a label, got %d positional arguments", len(pa.positional))
		}

		file, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: file: %w", err)
		}
		label, err := toString(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: label: %w", err)
		}
		spec := assembly.PartSpec{SourceFile: file, Label: label}

		if v, ok := pa.kw["t"]; ok {
			t, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("part %q: t: %w", label, err)
			}
			spec.Translation = &t
		}
		if v, ok := pa.kw["r"]; ok {
			r, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("part %q: r: %w", label, err)
			}
			spec.RotationDegrees = &r
		}
		for k := range pa.kw {
			if k != "t" && k != "r" {
				return zygo.SexpNull, fmt.Errorf("part %q: unknown keyword :%s", label, k)
			}
		}
		if err := spec.Normalize(); err != nil {
			return zygo.SexpNull, err
		}

		return &sexpPart{spec: spec}, nil
	})

	// -----------------------------------------------------------------------
	// (assembly "Suspension" :dir "suspension" (part ...) (list (part ...)) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("assembly", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("assembly requires a name argument")
		}

		asmName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("assembly: name: %w", err)
		}
		cfg := assembly.Config{Name: asmName}

		if v, ok := pa.kw["dir"]; ok {
			dir, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("assembly %q: dir: %w", asmName, err)
			}
			cfg.Dir = dir
		}

		for i, item := range pa.positional[1:] {
			cfg.Parts, err = collectParts(item, cfg.Parts)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("assembly %q: item %d: %w", asmName, i+1, err)
			}
		}
		if err := cfg.Normalize(); err != nil {
			return zygo.SexpNull, err
		}
		if err := col.add(cfg); err != nil {
			return zygo.SexpNull, err
		}

		return &sexpAssembly{name: cfg.Name, parts: len(cfg.Parts)}, nil
	})
}
