package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chazu/tenon/pkg/config"
	"github.com/chazu/tenon/pkg/logging"
)

// TestExampleTables loads the shipped example settings and tables, the
// same path `tenon assemble` takes before any part is read.
func TestExampleTables(t *testing.T) {
	s, err := config.Load("examples/tenon.toml", true)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	cfgs, err := config.LoadTables(nil, s.TablePaths()...)
	if err != nil {
		t.Fatalf("load tables: %v", err)
	}

	want := map[string]int{
		"Suspension":    5,
		"Machine Vice":  12,
		"Robot Arm":     8,
		"Robot Gripper": 12,
		"Leaf Spring":   9,
		"V4_Engine":     25,
		"Drone":         28,
	}
	if len(cfgs) != len(want) {
		t.Fatalf("expected %d assemblies, got %d", len(want), len(cfgs))
	}
	for _, c := range cfgs {
		n, ok := want[c.Name]
		if !ok {
			t.Errorf("unexpected assembly %q", c.Name)
			continue
		}
		if len(c.Parts) != n {
			t.Errorf("%s: expected %d parts, got %d", c.Name, n, len(c.Parts))
		}
		if dups := c.DuplicateLabels(); len(dups) > 0 {
			t.Errorf("%s: duplicate labels %v", c.Name, dups)
		}
	}

	v4 := cfgs[5]
	bolt := v4.Parts[3]
	x := 0.08
	x += 0.025
	if bolt.Label != "Bolt_1" || bolt.Translation == nil || bolt.Translation[0] != x {
		t.Errorf("V4 bolt 1 = %+v, want Bolt_1 at x=0.105", bolt)
	}
}

// sampleProject writes a settings file into a fresh base dir.
func sampleProject(t *testing.T) (base, cfgPath string) {
	t.Helper()
	base = t.TempDir()
	cfgPath = filepath.Join(base, "tenon.toml")
	if err := os.WriteFile(cfgPath, []byte("workers = 2\n\n[sample]\ncells = 16\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return base, cfgPath
}

func runCmd(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

// TestE2ESampleAssembleDeploy generates the sample parts, assembles them
// and runs every reporting command against the result.
func TestE2ESampleAssembleDeploy(t *testing.T) {
	base, cfg := sampleProject(t)

	if code, _, stderr := runCmd(t, "-config", cfg, "-no-color", "sample"); code != 0 {
		t.Fatalf("sample exited %d: %s", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(base, "suspension", "SPRING.glb")); err != nil {
		t.Fatalf("sample part missing: %v", err)
	}

	code, out, stderr := runCmd(t, "-config", cfg, "-no-color", "assemble")
	if code != 0 {
		t.Fatalf("assemble exited %d: %s\n%s", code, stderr, out)
	}
	output := filepath.Join(base, "assembled", "Suspension_assembled.glb")
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("assembled output missing: %v", err)
	}
	for _, want := range []string{"+ Base Mount", "+ Lock Nut", "-> " + output, "1 assembled, 0 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("assemble output missing %q:\n%s", want, out)
		}
	}

	checks := []struct {
		args []string
		want string
	}{
		{[]string{"analyze", "suspension"}, "World size (x0.01)"},
		{[]string{"bbox", "suspension"}, "ROD.glb: min["},
		{[]string{"inspect", "assembled"}, `Node: "Coil Spring"`},
		{[]string{"usage"}, "MB total"},
		{[]string{"deploy"}, "Deploy folder ready"},
	}
	for _, c := range checks {
		t.Run(c.args[0], func(t *testing.T) {
			args := append([]string{"-config", cfg, "-no-color"}, c.args...)
			code, out, stderr := runCmd(t, args...)
			if code != 0 {
				t.Fatalf("%v exited %d: %s", c.args, code, stderr)
			}
			if !strings.Contains(out, c.want) {
				t.Errorf("%v output missing %q:\n%s", c.args, c.want, out)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(base, "deploy", "assembled", "Suspension_assembled.glb")); err != nil {
		t.Errorf("deploy did not stage the assembled output: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "deploy", "suspension", "NUT.glb")); err != nil {
		t.Errorf("deploy did not stage project parts: %v", err)
	}
}

func TestAssembleNamed(t *testing.T) {
	_, cfg := sampleProject(t)
	if code, _, stderr := runCmd(t, "-config", cfg, "sample"); code != 0 {
		t.Fatalf("sample exited %d: %s", code, stderr)
	}
	code, out, stderr := runCmd(t, "-config", cfg, "-no-color", "assemble", "Suspension")
	if code != 0 {
		t.Fatalf("assemble exited %d: %s", code, stderr)
	}
	if !strings.Contains(out, "=== Suspension ===") {
		t.Errorf("expected Suspension report, got:\n%s", out)
	}
}

func TestWatchReassemblesOnPartChange(t *testing.T) {
	base, cfg := sampleProject(t)
	if code, _, stderr := runCmd(t, "-config", cfg, "sample"); code != 0 {
		t.Fatalf("sample exited %d: %s", code, stderr)
	}
	s, err := config.Load(cfg, true)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	app := NewApp(s, logging.Discard(), &out, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- app.Watch(ctx) }()

	output := filepath.Join(base, "assembled", "Suspension_assembled.glb")
	first := waitForModTime(t, output, time.Time{})

	rod := filepath.Join(base, "suspension", "ROD.glb")
	data, err := os.ReadFile(rod)
	if err != nil {
		t.Fatal(err)
	}
	// let the watcher register after the initial build
	time.Sleep(300 * time.Millisecond)
	if err := os.WriteFile(rod, data, 0o644); err != nil {
		t.Fatal(err)
	}
	waitForModTime(t, output, first)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

// waitForModTime polls until path exists with a modification time after
// since.
func waitForModTime(t *testing.T, path string, since time.Time) time.Time {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if info, err := os.Stat(path); err == nil && info.ModTime().After(since) {
			return info.ModTime()
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("%s not written after %v", path, since)
	return time.Time{}
}
