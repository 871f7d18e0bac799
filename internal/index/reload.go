package index

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/metrics"
)

// DefaultDebounce coalesces the burst of events a single artifact write produces.
const DefaultDebounce = 500 * time.Millisecond

// Reloader loads the artifact at a fixed path and hands each good snapshot to publish.
// A failed load leaves the previously published snapshot in place.
type Reloader struct {
	path    string
	publish func(*Index)
	logger  *zap.Logger
	mu      sync.Mutex
}

// NewReloader creates a Reloader. publish must be safe for concurrent use.
func NewReloader(path string, publish func(*Index), logger *zap.Logger) *Reloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reloader{path: path, publish: publish, logger: logger}
}

// Path returns the watched artifact path.
func (r *Reloader) Path() string { return r.path }

// Reload loads the artifact and publishes it.
func (r *Reloader) Reload(_ context.Context) (*Index, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	ix, err := Load(r.path)
	if err != nil {
		metrics.IndexReloadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load text index: %w", err)
	}
	r.publish(ix)
	metrics.IndexReloadsTotal.WithLabelValues("ok").Inc()
	metrics.IndexDocuments.Set(float64(ix.Size()))

	r.logger.Info("Text index loaded",
		zap.String("path", r.path),
		zap.String("version", ix.Version()),
		zap.Int("rows", ix.Size()),
		zap.Int("clusters", ix.Clusters()),
		zap.Duration("took", time.Since(start)),
	)
	return ix, nil
}

// Watch reloads the artifact whenever it is written or replaced, until ctx is done.
// The parent directory is watched so atomic rename-into-place is observed.
func (r *Reloader) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	dir, name := filepath.Dir(r.path), filepath.Base(r.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	r.logger.Info("Watching text index", zap.String("path", r.path), zap.Duration("debounce", debounce))

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
			if filepath.Base(ev.Name) != name || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(debounce)

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("Text index watcher error", zap.Error(werr))

		case <-timer.C:
			if _, err := r.Reload(ctx); err != nil {
				r.logger.Error("Text index reload failed, keeping current snapshot", zap.Error(err))
			}
		}
	}
}
