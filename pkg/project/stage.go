package project

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/samber/lo"

	"github.com/chazu/tenon/pkg/config"
)

// sniffLen is the header size filetype needs to match every type it knows.
const sniffLen = 261

// StageReport lists what Stage copied.
type StageReport struct {
	Dest string

	// Files are paths relative to Dest, in copy order.
	Files []string
	Bytes int64

	// Skipped are source paths left out, with the reason.
	Skipped []string
}

// Stage copies a deployable site into the deploy directory: the configured
// pages (and the index page again as index.html), every assembled output,
// and the files of each project whose extension is selected. Files with an
// image extension that do not sniff as images are skipped.
func Stage(s config.Settings, logger *slog.Logger) (StageReport, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	dest := s.DeployPath()
	rep := StageReport{Dest: dest}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return rep, fmt.Errorf("project: stage: %w", err)
	}

	st := &stager{rep: &rep, logger: logger}

	for _, page := range s.Deploy.Pages {
		if err := st.copy(s.Path(page), page); err != nil {
			return rep, err
		}
	}
	if s.Deploy.Index != "" {
		if err := st.copy(s.Path(s.Deploy.Index), "index.html"); err != nil {
			return rep, err
		}
	}

	outDir := s.OutputPath()
	outName := filepath.Base(outDir)
	outputs, err := os.ReadDir(outDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn("no assembled outputs", "dir", outDir)
	case err != nil:
		return rep, fmt.Errorf("project: stage: %w", err)
	}
	for _, f := range outputs {
		if f.IsDir() || strings.HasPrefix(f.Name(), ".") {
			continue
		}
		if err := st.copy(filepath.Join(outDir, f.Name()), filepath.Join(outName, f.Name())); err != nil {
			return rep, err
		}
	}

	projects, err := Select(s.BaseDir, s.Deploy.Projects)
	if err != nil {
		return rep, err
	}
	exts := normExts(s.Deploy.Extensions)
	for _, p := range projects {
		dir := p.Dir(s.BaseDir)
		if dir == outDir || dir == dest {
			continue
		}
		files := append(append([]string{}, p.Parts...), p.Images...)
		files = lo.Filter(files, func(f string, _ int) bool {
			return lo.Contains(exts, strings.ToLower(filepath.Ext(f)))
		})
		for _, f := range files {
			src := filepath.Join(dir, f)
			if lo.Contains(ImageExtensions, strings.ToLower(filepath.Ext(f))) {
				ok, err := isImage(src)
				if err != nil {
					return rep, err
				}
				if !ok {
					st.skip(src, "not an image")
					continue
				}
			}
			if err := st.copy(src, filepath.Join(p.Name, f)); err != nil {
				return rep, err
			}
		}
	}
	return rep, nil
}

type stager struct {
	rep    *StageReport
	logger *slog.Logger
}

func (st *stager) skip(src, reason string) {
	st.rep.Skipped = append(st.rep.Skipped, src+": "+reason)
	st.logger.Warn("skipped", "file", src, "reason", reason)
}

// copy copies src to rel under the deploy dir. A missing source is
// skipped, not an error.
func (st *stager) copy(src, rel string) error {
	n, err := copyFile(src, filepath.Join(st.rep.Dest, rel))
	if errors.Is(err, fs.ErrNotExist) {
		st.skip(src, "missing")
		return nil
	}
	if err != nil {
		return fmt.Errorf("project: stage %s: %w", rel, err)
	}
	st.rep.Files = append(st.rep.Files, rel)
	st.rep.Bytes += n
	st.logger.Debug("staged", "file", rel, "bytes", n)
	return nil
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}
	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func isImage(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("project: %w", err)
	}
	defer f.Close()
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("project: %w", err)
	}
	return filetype.IsImage(head[:n]), nil
}
