package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReloader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeReloader) Reload(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeReloader) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeBroadcaster struct {
	mu      sync.Mutex
	sources []string
}

func (f *fakeBroadcaster) BroadcastRefresh(source string, components []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources = append(f.sources, source)
}

func (f *fakeBroadcaster) Sources() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sources...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatcherReloadsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "president.csv")
	require.NoError(t, os.WriteFile(file, []byte("year\n"), 0o644))

	reloader := &fakeReloader{}
	broadcaster := &fakeBroadcaster{}

	w, err := New(dir, []string{"president.csv"}, 50*time.Millisecond, reloader, broadcaster, testLogger())
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()
	assert.True(t, w.Running())

	require.NoError(t, os.WriteFile(file, []byte("year\n2020\n"), 0o644))

	require.Eventually(t, func() bool { return reloader.Calls() >= 1 },
		3*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool { return len(broadcaster.Sources()) >= 1 },
		3*time.Second, 20*time.Millisecond)

	assert.Equal(t, "file_watcher", broadcaster.Sources()[0])
	assert.GreaterOrEqual(t, w.Reloads(), int64(1))
}

func TestWatcherIgnoresUntrackedFiles(t *testing.T) {
	dir := t.TempDir()
	reloader := &fakeReloader{}

	w, err := New(dir, []string{"president.csv"}, 50*time.Millisecond, reloader, nil, testLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	// give the debounce window time to elapse
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 0, reloader.Calls())
}

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "senate.csv")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0o644))

	reloader := &fakeReloader{}
	w, err := New(dir, []string{"senate.csv"}, 200*time.Millisecond, reloader, nil, testLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	// several writes in quick succession should coalesce into one reload
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(file, []byte{byte('a' + i)}, 0o644))
		time.Sleep(20 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return reloader.Calls() >= 1 },
		3*time.Second, 20*time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, 1, reloader.Calls())
}

func TestWatcherKeepsGoingWhenReloadFails(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "president.csv")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0o644))

	reloader := &fakeReloader{err: context.DeadlineExceeded}
	broadcaster := &fakeBroadcaster{}

	w, err := New(dir, []string{"president.csv"}, 50*time.Millisecond, reloader, broadcaster, testLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(file, []byte("b"), 0o644))

	require.Eventually(t, func() bool { return reloader.Calls() >= 1 },
		3*time.Second, 20*time.Millisecond)

	// failed reloads broadcast nothing and do not count
	assert.Empty(t, broadcaster.Sources())
	assert.Equal(t, int64(0), w.Reloads())
	assert.True(t, w.Running())
}

func TestWatcherStop(t *testing.T) {
	w, err := New(t.TempDir(), []string{"president.csv"}, 50*time.Millisecond, &fakeReloader{}, nil, testLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	assert.False(t, w.Running())

	// a second Stop must not panic or block
	w.Stop()
}

func TestWatcherStartFailsOnMissingDirectory(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "absent"), []string{"president.csv"}, 50*time.Millisecond, &fakeReloader{}, nil, testLogger())
	require.NoError(t, err)

	err = w.Start(context.Background())
	require.Error(t, err)
	assert.False(t, w.Running())
}
