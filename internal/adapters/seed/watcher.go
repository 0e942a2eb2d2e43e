package seed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/womenconnect/platform/internal/domain/model"
	"github.com/womenconnect/platform/pkg/logger"
	"github.com/womenconnect/platform/pkg/metrics"
)

const defaultDebounce = 200 * time.Millisecond

// Importer stores parsed events and reports how many were new.
type Importer interface {
	ImportEvents(ctx context.Context, events []model.Event) (int, error)
}

// Watcher imports seed files from a directory, once at startup and then
// whenever a file is created or rewritten.
type Watcher struct {
	dir      string
	importer Importer
	loc      *time.Location
	debounce time.Duration
	logger   logger.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	fs     *fsnotify.Watcher
	wg     sync.WaitGroup

	// imports counts debounced imports in progress. Add happens under mu
	// while fs is set, so Close can wait for it.
	imports sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLocation sets the zone for dates written without one.
func WithLocation(loc *time.Location) WatcherOption {
	return func(w *Watcher) {
		if loc != nil {
			w.loc = loc
		}
	}
}

// WithDebounce sets how long a file must be quiet before it is imported.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the watcher logger.
func WithLogger(l logger.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher returns a watcher for dir.
func NewWatcher(dir string, importer Importer, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		dir:      dir,
		importer: importer,
		loc:      time.UTC,
		debounce: defaultDebounce,
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("seed")
	}
	return w
}

// ImportDir imports every seed file in the directory in name order. A bad
// file is logged and skipped.
func (w *Watcher) ImportDir(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("read seed dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && Supported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	total := 0
	for _, name := range names {
		n, err := w.ImportFile(ctx, filepath.Join(w.dir, name))
		if err != nil {
			w.logger.Warn(ctx, "skipping seed file", logger.String("file", name), logger.Error(err))
			continue
		}
		total += n
	}
	return total, nil
}

// ImportFile loads one file and hands its events to the importer.
func (w *Watcher) ImportFile(ctx context.Context, path string) (int, error) {
	events, err := LoadFile(path, w.loc)
	if err != nil {
		metrics.RecordSeedImport("error")
		return 0, err
	}
	n, err := w.importer.ImportEvents(ctx, events)
	if err != nil {
		metrics.RecordSeedImport("error")
		return n, fmt.Errorf("import %s: %w", path, err)
	}
	metrics.RecordSeedImport("ok")
	w.logger.Info(ctx, "seed file imported",
		logger.String("file", filepath.Base(path)),
		logger.Int("events", len(events)),
		logger.Int("new", n),
	)
	return n, nil
}

// Start begins watching the directory. Events are processed until ctx is
// done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.mu.Lock()
	w.fs = fw
	w.mu.Unlock()

	w.wg.Add(1)
	go w.loop(ctx, fw)
	return nil
}

// Close stops watching, cancels pending imports and waits for any import
// already running.
func (w *Watcher) Close() error {
	w.mu.Lock()
	fw := w.fs
	w.fs = nil
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	var err error
	if fw != nil {
		err = fw.Close()
	}
	w.wg.Wait()
	w.imports.Wait()
	return err
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-fw.Events:
			if !ok {
				return
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write) != 0 && Supported(evt.Name) {
				w.schedule(ctx, evt.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error(ctx, "seed watcher error", logger.Error(err))
		}
	}
}

// schedule imports path once it has been quiet for the debounce period.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fs == nil {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		if w.fs == nil {
			w.mu.Unlock()
			return
		}
		w.imports.Add(1)
		w.mu.Unlock()
		defer w.imports.Done()

		if ctx.Err() != nil {
			return
		}
		if _, err := w.ImportFile(ctx, path); err != nil {
			w.logger.Warn(ctx, "seed import failed", logger.String("file", filepath.Base(path)), logger.Error(err))
		}
	})
}
