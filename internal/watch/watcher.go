package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/claudekit/internal/component"
	"github.com/starford/claudekit/internal/logging"
)

// DefaultDebounce is how long a path must stay quiet before it is checked.
const DefaultDebounce = 200 * time.Millisecond

// Callback receives each finding produced by the watcher.
type Callback func(Finding)

// Watcher revalidates source artifacts as they are created or written.
type Watcher struct {
	comps    []*component.Component
	log      *logging.Logger
	cb       Callback
	Debounce time.Duration
}

// NewWatcher creates a Watcher over comps. cb may be nil.
func NewWatcher(comps []*component.Component, log *logging.Logger, cb Callback) *Watcher {
	if log == nil {
		log = logging.Discard()
	}
	return &Watcher{comps: comps, log: log.With("watch"), cb: cb, Debounce: DefaultDebounce}
}

// Run watches the component source directories until ctx is cancelled.
// Directories created at runtime are added to the watch list.
func (wt *Watcher) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	roots := wt.roots()
	if len(roots) == 0 {
		return errors.New("watch: no source directories to watch")
	}
	for _, root := range roots {
		if err := addDirsRecursive(w, root); err != nil {
			return err
		}
		wt.log.Info("watching", slog.String("root", root))
	}

	pending := make(map[string]time.Time)
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func(p string) {
		pending[p] = time.Now().Add(wt.Debounce)
		if timer == nil {
			timer = time.NewTimer(wt.Debounce)
			timerCh = timer.C
		} else {
			timer.Reset(wt.Debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			wt.log.Info("watcher stopped")
			return nil

		case now := <-timerCh:
			var next time.Duration
			for p, due := range pending {
				if due.After(now) {
					if d := due.Sub(now); next == 0 || d < next {
						next = d
					}
					continue
				}
				delete(pending, p)
				wt.checkPath(p)
			}
			if next > 0 {
				timer.Reset(next)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						wt.log.Warn("add new dir failed", slog.String("path", ev.Name), logging.Err(addErr))
						continue
					}
					wt.log.Debug("watching new dir", slog.String("path", ev.Name))
					_ = filepath.WalkDir(ev.Name, func(p string, d fs.DirEntry, err error) error {
						if err == nil && !d.IsDir() {
							schedule(p)
						}
						return nil
					})
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				schedule(ev.Name)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			wt.log.Error("watcher error", watchErr)
		}
	}
}

// checkPath validates p against every component that owns it.
func (wt *Watcher) checkPath(p string) {
	if _, err := os.Stat(p); err != nil {
		wt.log.Debug("skipping vanished file", slog.String("path", p))
		return
	}
	for _, c := range wt.comps {
		rel, ok := c.Owns(p)
		if !ok {
			continue
		}
		f := check(c, rel)
		if f.Valid() {
			wt.log.Success("artifact valid", slog.String("component", f.Component), slog.String("file", f.Path))
		} else {
			wt.log.Warn("artifact invalid",
				slog.String("component", f.Component),
				slog.String("file", f.Path),
				slog.String("error", f.Error))
		}
		if wt.cb != nil {
			wt.cb(f)
		}
	}
}

// roots returns the distinct existing source directories, outermost only.
func (wt *Watcher) roots() []string {
	var dirs []string
	for _, c := range wt.comps {
		if info, err := os.Stat(c.SourceDir()); err == nil && info.IsDir() {
			dirs = append(dirs, c.SourceDir())
		}
	}
	sort.Strings(dirs)
	var out []string
	for _, d := range dirs {
		if n := len(out); n > 0 {
			if rel, err := filepath.Rel(out[n-1], d); err == nil && (rel == "." || filepath.IsLocal(rel)) {
				continue
			}
		}
		out = append(out, d)
	}
	return out
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
