package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockUploadService records uploads.
type mockUploadService struct {
	mu      sync.Mutex
	uploads map[string]string
	calls   int
	delay   time.Duration
	err     error
}

func newMockUploads() *mockUploadService {
	return &mockUploadService{uploads: make(map[string]string)}
}

func (m *mockUploadService) Upload(_ context.Context, filename string, content []byte) (*domain.UploadResult, error) {
	m.mu.Lock()
	delay := m.delay
	m.mu.Unlock()
	time.Sleep(delay)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	m.uploads[filename] = string(content)
	return &domain.UploadResult{DocumentID: "doc-" + filename, Filename: filename, ChunkCount: 1}, nil
}

func (m *mockUploadService) SupportedExtensions() []string {
	return []string{".docx", ".pdf", ".txt"}
}

func (m *mockUploadService) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.uploads)
}

func (m *mockUploadService) uploadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockUploadService) content(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.uploads[name]
	return c, ok
}

// resultLog collects watcher results.
type resultLog struct {
	mu      sync.Mutex
	results []Result
}

func (r *resultLog) add(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *resultLog) snapshot() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

func startWatcher(t *testing.T, cfg Config, uploads *mockUploadService) (*resultLog, context.CancelFunc) {
	t.Helper()
	if cfg.Debounce == 0 {
		cfg.Debounce = 20 * time.Millisecond
	}
	log := &resultLog{}
	w := New(cfg, uploads, log.add)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-w.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("watcher did not start")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	return log, cancel
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestWatcher_IngestsNewFile(t *testing.T) {
	dir := t.TempDir()
	uploads := newMockUploads()
	log, _ := startWatcher(t, Config{Dir: dir}, uploads)

	writeFile(t, dir, "notes.txt", "hello inbox")

	require.Eventually(t, func() bool { return uploads.count() == 1 }, 5*time.Second, 10*time.Millisecond)
	content, ok := uploads.content("notes.txt")
	require.True(t, ok)
	assert.Equal(t, "hello inbox", content)

	require.Eventually(t, func() bool { return len(log.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	res := log.snapshot()[0]
	require.NoError(t, res.Err)
	assert.Equal(t, "doc-notes.txt", res.Upload.DocumentID)
}

func TestWatcher_IgnoresUnsupportedAndHidden(t *testing.T) {
	dir := t.TempDir()
	uploads := newMockUploads()
	startWatcher(t, Config{Dir: dir}, uploads)

	writeFile(t, dir, "image.png", "png")
	writeFile(t, dir, ".hidden.txt", "secret")
	writeFile(t, dir, "~$draft.docx", "lock")
	writeFile(t, dir, "real.TXT", "upper case extension")

	require.Eventually(t, func() bool { return uploads.count() == 1 }, 5*time.Second, 10*time.Millisecond)
	// Give any stray events time to fire.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, uploads.count())
	_, ok := uploads.content("real.TXT")
	assert.True(t, ok)
}

func TestWatcher_IngestExisting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "old.txt", "already here")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o700))

	uploads := newMockUploads()
	startWatcher(t, Config{Dir: dir, IngestExisting: true}, uploads)

	require.Eventually(t, func() bool { return uploads.count() == 1 }, 5*time.Second, 10*time.Millisecond)
	_, ok := uploads.content("old.txt")
	assert.True(t, ok)
}

func TestWatcher_SkipsExistingByDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "old.txt", "already here")

	uploads := newMockUploads()
	startWatcher(t, Config{Dir: dir}, uploads)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, uploads.count())
}

func TestWatcher_MaxBytes(t *testing.T) {
	dir := t.TempDir()
	uploads := newMockUploads()
	log, _ := startWatcher(t, Config{Dir: dir, MaxBytes: 4}, uploads)

	writeFile(t, dir, "big.txt", "far too large")

	require.Eventually(t, func() bool { return len(log.snapshot()) > 0 }, 5*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, log.snapshot()[0].Err, domain.ErrInvalidInput)
	assert.Equal(t, 0, uploads.count())
}

func TestWatcher_ReportsUploadErrors(t *testing.T) {
	dir := t.TempDir()
	uploads := newMockUploads()
	uploads.err = domain.ErrProcessing
	log, _ := startWatcher(t, Config{Dir: dir}, uploads)

	writeFile(t, dir, "empty.txt", "   ")

	require.Eventually(t, func() bool { return len(log.snapshot()) > 0 }, 5*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, log.snapshot()[0].Err, domain.ErrProcessing)
}

func TestWatcher_Run_MissingDir(t *testing.T) {
	w := New(Config{Dir: filepath.Join(t.TempDir(), "missing")}, newMockUploads(), nil)

	err := w.Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWatcher_Run_NotADirectory(t *testing.T) {
	path := writeFile(t, t.TempDir(), "file.txt", "x")
	w := New(Config{Dir: path}, newMockUploads(), nil)

	err := w.Run(context.Background())

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWatcher_Accepts(t *testing.T) {
	w := New(Config{Dir: "."}, newMockUploads(), nil)

	tests := []struct {
		path string
		want bool
	}{
		{"/inbox/a.txt", true},
		{"/inbox/b.PDF", true},
		{"/inbox/c.docx", true},
		{"/inbox/d.md", false},
		{"/inbox/.e.txt", false},
		{"/inbox/~$f.docx", false},
		{"/inbox/noext", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, w.accepts(tt.path))
		})
	}
}

func TestWatcher_ProcessSkipsUnchangedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "same.txt", "content")
	uploads := newMockUploads()
	calls := 0
	w := New(Config{Dir: dir}, uploads, func(Result) { calls++ })

	w.process(context.Background(), path)
	w.process(context.Background(), path)

	assert.Equal(t, 1, calls)

	// A new version is ingested again.
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.WriteFile(path, []byte("changed content"), 0o600))
	require.NoError(t, os.Chtimes(path, later, later))
	w.process(context.Background(), path)

	assert.Equal(t, 2, calls)
	content, _ := uploads.content("same.txt")
	assert.Equal(t, "changed content", content)
}

func TestWatcher_ProcessConcurrentSamePathUploadsOnce(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "race.txt", "content")
	uploads := newMockUploads()
	uploads.delay = 50 * time.Millisecond
	w := New(Config{Dir: dir}, uploads, nil)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.process(context.Background(), path)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, uploads.uploadCalls())
}
