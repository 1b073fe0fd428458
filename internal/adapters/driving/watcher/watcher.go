// Package watcher ingests documents dropped into an inbox directory.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

const (
	defaultDebounce = 500 * time.Millisecond
	readAttempts    = 3
)

// Config configures the inbox watcher.
type Config struct {
	// Dir is the inbox directory. It must exist.
	Dir string

	// Debounce is how long a file must stay quiet before it is ingested.
	Debounce time.Duration

	// IngestExisting ingests files already present when the watcher starts.
	IngestExisting bool

	// MaxBytes skips files larger than this. Zero means no limit.
	MaxBytes int64
}

// Result reports the outcome of one ingestion attempt.
type Result struct {
	Path   string
	Upload *domain.UploadResult
	Err    error
}

// stamp identifies a version of a file.
type stamp struct {
	size    int64
	modTime time.Time
}

// Watcher turns file creations in an inbox into uploads.
type Watcher struct {
	cfg       Config
	uploads   driving.UploadService
	supported []string
	onResult  func(Result)

	mu       sync.Mutex
	pending  map[string]*time.Timer
	ingested map[string]stamp
	busy     map[string]*sync.Mutex
	inflight sync.WaitGroup
	ready    chan struct{}
}

// New creates a watcher. onResult, if non-nil, is called after every attempt.
func New(cfg Config, uploads driving.UploadService, onResult func(Result)) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	return &Watcher{
		cfg:       cfg,
		uploads:   uploads,
		supported: uploads.SupportedExtensions(),
		onResult:  onResult,
		pending:   make(map[string]*time.Timer),
		ingested:  make(map[string]stamp),
		busy:      make(map[string]*sync.Mutex),
		ready:     make(chan struct{}),
	}
}

// Ready is closed once the inbox is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches the inbox until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.cfg.Dir)
	if err != nil {
		return fmt.Errorf("inbox: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: inbox %s is not a directory", domain.ErrInvalidInput, w.cfg.Dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}
	close(w.ready)
	logger.Info("Watching %s for %s files", w.cfg.Dir, strings.Join(w.supported, ", "))

	if w.cfg.IngestExisting {
		w.ingestExisting(ctx)
	}

	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && w.accepts(event.Name) {
				w.schedule(ctx, event.Name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// stop cancels pending timers and waits for running ingestions.
func (w *Watcher) stop() {
	w.mu.Lock()
	for path, timer := range w.pending {
		if timer.Stop() {
			w.inflight.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.inflight.Wait()
}

// accepts reports whether path names a visible file with a supported extension.
func (w *Watcher) accepts(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return false
	}
	return slices.Contains(w.supported, strings.ToLower(filepath.Ext(name)))
}

// schedule debounces events for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok && timer.Stop() {
		w.inflight.Done()
	}

	w.inflight.Add(1)
	w.pending[path] = time.AfterFunc(w.cfg.Debounce, func() {
		defer w.inflight.Done()

		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		w.process(ctx, path)
	})
}

func (w *Watcher) ingestExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		logger.Warn("Failed to list %s: %v", w.cfg.Dir, err)
		return
	}
	for _, entry := range entries {
		path := filepath.Join(w.cfg.Dir, entry.Name())
		if entry.IsDir() || !w.accepts(path) {
			continue
		}
		w.process(ctx, path)
	}
}

// pathLock returns the mutex serialising work on path.
func (w *Watcher) pathLock(path string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	l, ok := w.busy[path]
	if !ok {
		l = &sync.Mutex{}
		w.busy[path] = l
	}
	return l
}

// process uploads path unless this version was already ingested.
// Calls for the same path run one at a time, so a version is uploaded once.
func (w *Watcher) process(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	l := w.pathLock(path)
	l.Lock()
	defer l.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		// Removed before the debounce fired.
		logger.Debug("Skipping %s: %v", path, err)
		return
	}
	if info.IsDir() {
		return
	}
	if w.cfg.MaxBytes > 0 && info.Size() > w.cfg.MaxBytes {
		w.report(Result{Path: path, Err: fmt.Errorf("%w: %s is %d bytes (max %d)",
			domain.ErrInvalidInput, filepath.Base(path), info.Size(), w.cfg.MaxBytes)})
		return
	}

	current := stamp{size: info.Size(), modTime: info.ModTime()}
	w.mu.Lock()
	prev, seen := w.ingested[path]
	w.mu.Unlock()
	if seen && prev == current {
		return
	}

	content, err := readWithRetry(path)
	if err != nil {
		w.report(Result{Path: path, Err: err})
		return
	}

	result, err := w.uploads.Upload(ctx, filepath.Base(path), content)
	if err == nil {
		w.mu.Lock()
		w.ingested[path] = current
		w.mu.Unlock()
	}
	w.report(Result{Path: path, Upload: result, Err: err})
}

func (w *Watcher) report(r Result) {
	if r.Err != nil {
		logger.Warn("Failed to ingest %s: %v", r.Path, r.Err)
	} else {
		logger.Info("Ingested %s as %s (%d chunks)", r.Path, r.Upload.DocumentID, r.Upload.ChunkCount)
	}
	if w.onResult != nil {
		w.onResult(r)
	}
}

// readWithRetry retries briefly while another process holds the file.
func readWithRetry(path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	for attempt := range readAttempts {
		data, err = os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
	}
	return nil, fmt.Errorf("read %s: %w", path, err)
}
