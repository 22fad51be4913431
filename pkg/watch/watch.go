// Package watch reports changed directories from a set of watched
// directories, coalescing bursts of file events.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
)

// DefaultDebounce is the quiet period used when Options.Debounce is 0.
const DefaultDebounce = 300 * time.Millisecond

// Options configure Run.
type Options struct {
	// Debounce is how long the directories must be quiet before fn runs.
	Debounce time.Duration

	// Extensions limits events to these file extensions (lowercase, with
	// dot). Empty means every file.
	Extensions []string

	Logger *slog.Logger
}

func (o Options) match(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return len(o.Extensions) == 0 || lo.Contains(o.Extensions, strings.ToLower(filepath.Ext(name)))
}

// Run watches dirs (not recursively) until ctx is done. After a burst of
// matching events settles, fn is called once with the sorted set of
// directories that changed. fn runs on the watching goroutine, so events
// arriving while it runs are picked up afterwards.
func Run(ctx context.Context, dirs []string, opts Options, fn func(changed []string)) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	for _, d := range lo.Uniq(dirs) {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watch: %s: %w", d, err)
		}
		logger.Debug("watching", "dir", d)
	}

	pending := make(map[string]bool)
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !opts.match(ev) {
				continue
			}
			logger.Debug("change", "file", ev.Name, "op", ev.Op.String())
			pending[filepath.Dir(ev.Name)] = true
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := lo.Keys(pending)
			slices.Sort(changed)
			clear(pending)
			fn(changed)
		}
	}
}
