// Package report prints human-readable summaries of assemblies and part
// files to a terminal.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/chazu/tenon/pkg/assembly"
	"github.com/chazu/tenon/pkg/project"
)

// Printer writes styled reports to w.
type Printer struct {
	w io.Writer

	head lipgloss.Style
	ok   lipgloss.Style
	fail lipgloss.Style
	warn lipgloss.Style
	dim  lipgloss.Style
}

// New returns a Printer for w. With color false every style renders as
// plain text.
func New(w io.Writer, color bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		w:    w,
		head: r.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true),
		ok:   r.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
		fail: r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		warn: r.NewStyle().Foreground(lipgloss.Color("#F7B801")),
		dim:  r.NewStyle().Foreground(lipgloss.Color("#A0AEC0")),
	}
}

func (p *Printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Assembly prints one assembly: a line per part, warnings, then the output
// path or the failure.
func (p *Printer) Assembly(res assembly.Result) {
	p.line("%s", p.head.Render("=== "+res.Name+" ==="))
	for _, o := range res.Outcomes {
		if o.OK() {
			p.line("  %s %s", p.ok.Render("+"), o.Label)
		} else {
			p.line("  %s %s: %v", p.fail.Render("!"), o.SourceFile, o.Err)
		}
	}
	for _, w := range res.Warnings {
		p.line("  %s %s", p.warn.Render("~"), w)
	}
	if res.Stats.DroppedAnimations > 0 {
		p.line("  %s %d animation(s) dropped", p.warn.Render("~"), res.Stats.DroppedAnimations)
	}
	if len(res.Stats.DroppedExtensions) > 0 {
		p.line("  %s extensions dropped: %s", p.warn.Render("~"), strings.Join(res.Stats.DroppedExtensions, ", "))
	}
	if !res.OK() {
		p.line("  %s %v", p.fail.Render("failed:"), res.Err)
		return
	}
	p.line("  %s %s %s", p.ok.Render("->"), res.OutputPath,
		p.dim.Render(fmt.Sprintf("(%d roots, %d nodes, %d scene, %d buffer)", res.RootNodes, res.Nodes, res.Scenes, res.Buffers)))
}

// Batch prints every assembly and a closing count.
func (p *Printer) Batch(results []assembly.Result) {
	for _, r := range results {
		p.Assembly(r)
	}
	failed := assembly.Failed(results)
	msg := fmt.Sprintf("%d assembled, %d failed", len(results)-failed, failed)
	if failed > 0 {
		p.line("\n%s", p.fail.Render(msg))
		return
	}
	p.line("\n%s", p.ok.Render(msg))
}

// Analysis prints the aggregate mesh bounds of each file, grouped by
// project, with the size converted by scale.
func (p *Printer) Analysis(reps []project.FileReport, scale float64) {
	p.byProject(reps, func(r project.FileReport) {
		p.line("  %s", r.File)
		if r.Summary.Empty() {
			p.line("    %s", p.dim.Render("no geometry"))
			return
		}
		s := r.Summary
		p.line("    Mesh bbox: min%s max%s", vec(s.Min[:], 2), vec(s.Max[:], 2))
		p.line("    Size: %s  Center: %s", vec(s.Size[:], 2), vec(s.Center[:], 2))
		world := s.Scaled(scale)
		p.line("    World size (x%s): %s  Prims: %d", strconv.FormatFloat(scale, 'g', -1, 64), vec(world[:], 4), s.Primitives)
	})
}

// BBoxes prints the bounds of every primitive.
func (p *Printer) BBoxes(reps []project.FileReport) {
	p.byProject(reps, func(r project.FileReport) {
		for _, b := range r.Primitives {
			center := [3]float64{}
			for i := range center {
				center[i] = (b.Min[i] + b.Max[i]) / 2
			}
			p.line("  %s: min%s max%s center%s", r.File, vec(b.Min[:], 2), vec(b.Max[:], 2), vec(center[:], 2))
		}
	})
}

// Nodes prints the local transform of every scene node.
func (p *Printer) Nodes(reps []project.FileReport) {
	p.byProject(reps, func(r project.FileReport) {
		p.line("\n  %s:", r.File)
		for _, n := range r.Nodes {
			kind := "Node"
			if n.Depth > 0 {
				kind = "Child"
			}
			p.line("    %s%s: %q | T:%s R:%s S:%s", strings.Repeat("  ", n.Depth), kind, n.Name,
				vec(n.Translation[:], 3), vec(n.Rotation[:], 3), vec(n.Scale[:], 3))
		}
		for _, issue := range r.Issues {
			p.line("    %s %s", p.warn.Render("~"), issue.Error())
		}
	})
}

func (p *Printer) byProject(reps []project.FileReport, each func(project.FileReport)) {
	current := "\x00"
	for _, r := range reps {
		if r.Project != current {
			current = r.Project
			p.line("\n%s", p.head.Render("========== "+r.Project+" =========="))
		}
		if r.Err != nil {
			p.line("  %s %s: %v", p.fail.Render("!"), r.File, r.Err)
			continue
		}
		each(r)
	}
}

// Usage prints a disk usage total with a per-extension breakdown.
func (p *Printer) Usage(rep project.UsageReport, exts []string) {
	for _, e := range exts {
		if n, ok := rep.ByExt[strings.ToLower(e)]; ok {
			p.line("  %-6s %s", e, p.dim.Render(project.MB(n)))
		}
	}
	p.line("%s total (%d files)", project.MB(rep.Bytes), rep.Files)
}

// Stage prints the files copied by a deploy.
func (p *Printer) Stage(rep project.StageReport) {
	for _, f := range rep.Files {
		p.line("  %s %s", p.ok.Render("+"), f)
	}
	for _, s := range rep.Skipped {
		p.line("  %s %s", p.warn.Render("~"), s)
	}
	p.line("\nDeploy folder ready: %s", rep.Dest)
	p.line("Files: %d | Size: %s", len(rep.Files), project.MB(rep.Bytes))
}

func vec(v []float64, prec int) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'f', prec, 64)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
