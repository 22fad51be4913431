package project

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// UsageReport totals file sizes by extension.
type UsageReport struct {
	Files int
	Bytes int64
	ByExt map[string]int64
}

// Usage walks base recursively and totals the size of files whose
// extension is in exts. Directories named in skipDirs are not entered.
func Usage(base string, exts, skipDirs []string) (UsageReport, error) {
	exts = normExts(exts)
	rep := UsageReport{ByExt: make(map[string]int64)}
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != base && lo.Contains(skipDirs, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if !lo.Contains(exts, ext) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rep.Files++
		rep.Bytes += info.Size()
		rep.ByExt[ext] += info.Size()
		return nil
	})
	if err != nil {
		return rep, fmt.Errorf("project: usage: %w", err)
	}
	return rep, nil
}

// MB formats a byte count as megabytes with one decimal.
func MB(n int64) string {
	return fmt.Sprintf("%.1f MB", float64(n)/1024/1024)
}
