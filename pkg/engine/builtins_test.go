package engine

import (
	"strings"
	"testing"

	"github.com/chazu/tenon/pkg/assembly"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessSource(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(part "ROD.glb" "Rod" :t v)`,
			expect: `(part "ROD.glb" "Rod" "__kw_t" v)`,
		},
		{
			name:   "multiple keywords",
			input:  `(assembly "A" :dir "a" :extra 1)`,
			expect: `(assembly "A" "__kw_dir" "a" "__kw_extra" 1)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "escaped quote in string",
			input:  `"say \"hi\" :t" :r`,
			expect: `"say \"hi\" :t" "__kw_r"`,
		},
		{
			name:   "backtick string preserved",
			input:  "`raw :t part-list`",
			expect: "`raw :t part-list`",
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(def engine-parts (list))`,
			expect: `(def engine_parts (list))`,
		},
		{
			name:   "minus operator and negative numbers preserved",
			input:  `(- 10 5) (vec3 0 -0.005 0)`,
			expect: `(- 10 5) (vec3 0 -0.005 0)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:part-dir`,
			expect: `"__kw_part-dir"`,
		},
		{
			name:   "kebab label stays inside string",
			input:  `"Lock-Nut"`,
			expect: `"Lock-Nut"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Builtin tests
// ---------------------------------------------------------------------------

func mustEval(t *testing.T, source string) []assembly.Config {
	t.Helper()
	cfgs, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return cfgs
}

func TestSuspensionScript(t *testing.T) {
	source := `
; coilover shock absorber, translations in meters
(assembly "Suspension"
  (part "BASE.glb"   "Base Mount"    :t (vec3 0 0 0))
  (part "ROD.glb"    "Damper Rod"    :t (vec3 0 0.028 0))
  (part "SPRING.glb" "Coil Spring"   :t (vec3 0 -0.005 0))
  (part "NIT.glb"    "Retainer Ring" :t (vec3 0 0.080 0))
  (part "NUT.glb"    "Lock Nut"      :t (vec3 0 0.092 0)))
`
	cfgs := mustEval(t, source)
	if len(cfgs) != 1 {
		t.Fatalf("expected 1 assembly, got %d", len(cfgs))
	}
	cfg := cfgs[0]
	if cfg.Name != "Suspension" {
		t.Errorf("Name = %q, want Suspension", cfg.Name)
	}
	if len(cfg.Parts) != 5 {
		t.Fatalf("expected 5 parts, got %d", len(cfg.Parts))
	}

	wantLabels := []string{"Base Mount", "Damper Rod", "Coil Spring", "Retainer Ring", "Lock Nut"}
	wantY := []float64{0, 0.028, -0.005, 0.080, 0.092}
	for i, p := range cfg.Parts {
		if p.Label != wantLabels[i] {
			t.Errorf("part %d label = %q, want %q", i, p.Label, wantLabels[i])
		}
		if p.Translation == nil {
			t.Fatalf("part %d: expected translation", i)
		}
		if p.Translation[1] != wantY[i] {
			t.Errorf("part %d t.y = %v, want %v", i, p.Translation[1], wantY[i])
		}
		if p.RotationDegrees != nil {
			t.Errorf("part %d: unexpected rotation %v", i, *p.RotationDegrees)
		}
	}
}

func TestPartRotationAndDir(t *testing.T) {
	source := `
(assembly "Robot Arm" :dir "robot-arm"
  (part "Part3.glb" "Upper Arm" :t (vec3 0.05 0.28 0.12) :r (vec3 0 0 50))
  (part "Part4.glb" "Forearm" :r [0 0 -20]))
`
	cfgs := mustEval(t, source)
	cfg := cfgs[0]
	if cfg.Dir != "robot-arm" {
		t.Errorf("Dir = %q, want robot-arm", cfg.Dir)
	}
	if r := cfg.Parts[0].RotationDegrees; r == nil || *r != [3]float64{0, 0, 50} {
		t.Errorf("part 0 rotation = %v, want [0 0 50]", r)
	}
	if cfg.Parts[1].Translation != nil {
		t.Errorf("part 1 translation = %v, want nil", *cfg.Parts[1].Translation)
	}
	if r := cfg.Parts[1].RotationDegrees; r == nil || r[2] != -20 {
		t.Errorf("part 1 rotation = %v, want z=-20", r)
	}
}

func TestPartListsAndLabels(t *testing.T) {
	source := `
(def pins (list
  (part "Pin.glb" (label "Pin " 1) :t (vec3 0 0.04 0.003))
  (part "Pin.glb" (label "Pin " 2) :t (vec3 0 0.02 0.003))))
(assembly "Robot Gripper"
  (part "Base Plate.glb" "Base Plate")
  pins
  [(part "Link.glb" "Link 1") (part "Link.glb" "Link 2")])
`
	cfgs := mustEval(t, source)
	parts := cfgs[0].Parts
	var labels []string
	for _, p := range parts {
		labels = append(labels, p.Label)
	}
	want := "Base Plate,Pin 1,Pin 2,Link 1,Link 2"
	if got := strings.Join(labels, ","); got != want {
		t.Errorf("labels = %s, want %s", got, want)
	}
}

func TestMultipleAssemblies(t *testing.T) {
	source := `
(assembly "A" (part "a.glb" "a"))
(assembly "B" (part "b.glb" "b"))
`
	cfgs := mustEval(t, source)
	if len(cfgs) != 2 || cfgs[0].Name != "A" || cfgs[1].Name != "B" {
		t.Errorf("assemblies = %+v, want A then B", cfgs)
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"vec3 arity", `(vec3 1 2)`},
		{"vec3 type", `(vec3 1 "a" 2)`},
		{"part missing label", `(part "a.glb")`},
		{"part empty label", `(part "a.glb" "")`},
		{"part bad keyword", `(part "a.glb" "a" :scale (vec3 1 1 1))`},
		{"part bad t", `(part "a.glb" "a" :t 5)`},
		{"assembly without parts", `(assembly "Empty")`},
		{"assembly bad item", `(assembly "A" 42)`},
		{"assembly declared twice", `(assembly "A" (part "a.glb" "a")) (assembly "A" (part "b.glb" "b"))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgs, evalErrs, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected eval error, got fatal: %v", err)
			}
			if len(evalErrs) == 0 {
				t.Fatalf("expected eval error, got configs %+v", cfgs)
			}
		})
	}
}

func TestEvaluateIsolated(t *testing.T) {
	eng := NewEngine()
	src := `(assembly "A" (part "a.glb" "a"))`
	for i := 0; i < 3; i++ {
		cfgs, evalErrs, err := eng.Evaluate(src)
		if err != nil || len(evalErrs) > 0 {
			t.Fatalf("iteration %d: %v %v", i, err, evalErrs)
		}
		if len(cfgs) != 1 {
			t.Fatalf("iteration %d: got %d assemblies, want 1", i, len(cfgs))
		}
	}
}
