package artifact

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "mediaconv/internal/app/errors"
	"mediaconv/internal/app/lifecycle"
	"mediaconv/internal/app/media"
)

type recordingScheduler struct {
	mu    sync.Mutex
	delay []time.Duration
	tasks []func()
}

func (r *recordingScheduler) After(d time.Duration, _ string, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delay = append(r.delay, d)
	r.tasks = append(r.tasks, fn)
}

func (r *recordingScheduler) runAll() {
	r.mu.Lock()
	tasks := r.tasks
	r.tasks = nil
	r.mu.Unlock()
	for _, fn := range tasks {
		fn()
	}
}

func newTestStore(t *testing.T) (*Store, *FSBackend, *recordingScheduler) {
	t.Helper()
	backend, err := NewFSBackend(filepath.Join(t.TempDir(), "output"))
	require.NoError(t, err)
	sched := &recordingScheduler{}
	return NewStore(backend, sched, 5*time.Second, zaptest.NewLogger(t)), backend, sched
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "work.mp3")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPutAndRetrieveOnce(t *testing.T) {
	store, backend, sched := newTestStore(t)
	src := writeTemp(t, "converted")

	a, err := store.Put(context.Background(), src, "My Song", media.MP3)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(a.ID, "-My Song.mp3"))
	assert.Equal(t, "My Song.mp3", a.LogicalName)
	assert.Equal(t, int64(9), a.Size)
	assert.NoFileExists(t, src)
	assert.FileExists(t, backend.Path(a.ID))

	d, err := store.Retrieve(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", d.ContentType)
	data, err := io.ReadAll(d)
	require.NoError(t, err)
	assert.Equal(t, "converted", string(data))

	_, err = store.Retrieve(context.Background(), a.ID)
	assert.ErrorIs(t, err, apperrors.ErrArtifactAbsent)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	require.Len(t, sched.tasks, 1)
	assert.Equal(t, 5*time.Second, sched.delay[0])
	assert.FileExists(t, backend.Path(a.ID))

	sched.runAll()
	assert.NoFileExists(t, backend.Path(a.ID))
	assert.Equal(t, 0, store.Active())
}

func TestRetrieveUnknown(t *testing.T) {
	store, _, _ := newTestStore(t)
	_, err := store.Retrieve(context.Background(), "nope.mp3")
	assert.ErrorIs(t, err, apperrors.ErrArtifactAbsent)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestRetrieveMissingContent(t *testing.T) {
	store, backend, _ := newTestStore(t)
	a, err := store.Put(context.Background(), writeTemp(t, "x"), "song", media.MP3)
	require.NoError(t, err)
	require.NoError(t, os.Remove(backend.Path(a.ID)))

	_, err = store.Retrieve(context.Background(), a.ID)
	assert.ErrorIs(t, err, apperrors.ErrArtifactAbsent)
	assert.Equal(t, 0, store.Active())
}

func TestPutSanitizesName(t *testing.T) {
	store, backend, _ := newTestStore(t)
	a, err := store.Put(context.Background(), writeTemp(t, "x"), `../../etc/<passwd>`, media.WAV)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(a.ID, "-etcpasswd.wav"))
	assert.Equal(t, filepath.Dir(backend.Path(a.ID)), backend.dir)
}

func TestPutNamesAreUnique(t *testing.T) {
	store, _, _ := newTestStore(t)
	a, err := store.Put(context.Background(), writeTemp(t, "1"), "same", media.MP3)
	require.NoError(t, err)
	b, err := store.Put(context.Background(), writeTemp(t, "2"), "same", media.MP3)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestDiscard(t *testing.T) {
	store, backend, _ := newTestStore(t)
	a, err := store.Put(context.Background(), writeTemp(t, "x"), "song", media.FLAC)
	require.NoError(t, err)

	store.Discard(context.Background(), a.ID)
	assert.NoFileExists(t, backend.Path(a.ID))
	_, ok := store.Lookup(a.ID)
	assert.False(t, ok)
}

func TestExpire(t *testing.T) {
	store, backend, _ := newTestStore(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	old, err := store.Put(context.Background(), writeTemp(t, "old"), "old", media.MP3)
	require.NoError(t, err)
	delivered, err := store.Put(context.Background(), writeTemp(t, "d"), "delivered", media.MP3)
	require.NoError(t, err)
	d, err := store.Retrieve(context.Background(), delivered.ID)
	require.NoError(t, err)
	defer d.Close()

	store.now = func() time.Time { return base.Add(30 * time.Minute) }
	fresh, err := store.Put(context.Background(), writeTemp(t, "fresh"), "fresh", media.MP3)
	require.NoError(t, err)

	store.now = func() time.Time { return base.Add(time.Hour + time.Minute) }
	assert.Equal(t, 1, store.Expire(context.Background(), time.Hour))

	assert.NoFileExists(t, backend.Path(old.ID))
	assert.FileExists(t, backend.Path(fresh.ID))
	assert.Equal(t, 2, store.Active())
}

func TestDeletionDrainedOnShutdown(t *testing.T) {
	backend, err := NewFSBackend(t.TempDir())
	require.NoError(t, err)
	exec := lifecycle.NewExecutor(zaptest.NewLogger(t))
	store := NewStore(backend, exec, time.Hour, zaptest.NewLogger(t))

	a, err := store.Put(context.Background(), writeTemp(t, "x"), "song", media.MP3)
	require.NoError(t, err)
	d, err := store.Retrieve(context.Background(), a.ID)
	require.NoError(t, err)
	require.NoError(t, d.Close())
	assert.FileExists(t, backend.Path(a.ID))

	require.NoError(t, exec.Shutdown(context.Background()))
	assert.NoFileExists(t, backend.Path(a.ID))
}

func TestRestoreAfterRestart(t *testing.T) {
	ctx := context.Background()
	store, backend, sched := newTestStore(t)

	stale, err := store.Put(ctx, writeTemp(t, "old"), "Old Song", media.MP3)
	require.NoError(t, err)
	fresh, err := store.Put(ctx, writeTemp(t, "new"), "New Song", media.FLAC)
	require.NoError(t, err)
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(backend.Path(stale.ID), past, past))

	// files not produced by the store are ignored
	require.NoError(t, os.WriteFile(backend.Path("notes.txt"), []byte("x"), 0o644))

	restarted := NewStore(backend, sched, 5*time.Second, zaptest.NewLogger(t))
	n, err := restarted.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	a, ok := restarted.Lookup(fresh.ID)
	require.True(t, ok)
	assert.Equal(t, "New Song.flac", a.LogicalName)
	assert.Equal(t, "flac", a.Format)
	assert.Equal(t, int64(3), a.Size)

	assert.Equal(t, 1, restarted.Expire(ctx, time.Hour))
	assert.NoFileExists(t, backend.Path(stale.ID))
	assert.FileExists(t, backend.Path("notes.txt"))

	d, err := restarted.Retrieve(ctx, fresh.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(d)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	require.NoError(t, d.Close())

	n, err = restarted.Restore(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "known artifacts are not indexed twice")
}

func TestParseID(t *testing.T) {
	id := NewID("My Song", media.WAV)
	name, f, ok := ParseID(id)
	require.True(t, ok)
	assert.Equal(t, "My Song.wav", name)
	assert.Equal(t, media.WAV, f)

	for _, key := range []string{
		"notes.txt",
		"player-script.js",
		"0b7c8a8e-1f0e-4f3e-9a51-6c1f1b2d3e4f-song",
		"0b7c8a8e-1f0e-4f3e-9a51-6c1f1b2d3e4f-song.ogg",
		"not-a-uuid-at-all-not-a-uuid-at-all!-song.mp3",
	} {
		_, _, ok := ParseID(key)
		assert.False(t, ok, key)
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "audio/mpeg", ContentType("x.mp3"))
	assert.Equal(t, "audio/wav", ContentType("x.wav"))
	assert.Equal(t, "audio/flac", ContentType("x.flac"))
	assert.Equal(t, "application/octet-stream", ContentType("x"))
}
