package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWatcher(t *testing.T, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcher_CoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.toml")
	writeFile(t, path, "a")

	w := newWatcher(t, WithDelay(50*time.Millisecond))
	require.NoError(t, w.Add(path))

	for _, s := range []string{"b", "c", "d"} {
		writeFile(t, path, s)
	}

	select {
	case e := <-w.Events():
		assert.Equal(t, path, e.Path)
		assert.True(t, e.Op.Has(OpWrite))
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
	}

	select {
	case e := <-w.Events():
		t.Fatalf("unexpected second event %v", e)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "watched.toml")
	other := filepath.Join(dir, "other.toml")
	writeFile(t, watched, "a")

	w := newWatcher(t, WithDelay(20*time.Millisecond))
	require.NoError(t, w.Add(watched))

	writeFile(t, other, "x")
	select {
	case e := <-w.Events():
		t.Fatalf("unexpected event %v", e)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_Flush(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "a")

	w := newWatcher(t, WithDelay(time.Hour))
	require.NoError(t, w.Add(path))
	writeFile(t, path, "b")

	require.Eventually(t, func() bool { return w.PendingCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	w.Flush()

	select {
	case e := <-w.Events():
		assert.Equal(t, path, e.Path)
	case <-time.After(time.Second):
		t.Fatal("flush did not fire")
	}
	assert.Zero(t, w.PendingCount())
}

func TestWatcher_AddErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.toml")
	writeFile(t, path, "a")

	w := newWatcher(t)
	assert.ErrorIs(t, w.Add(filepath.Join(dir, "missing.toml")), ErrPathNotExist)

	require.NoError(t, w.Add(path))
	assert.ErrorIs(t, w.Add(path), ErrAlreadyWatching)
	assert.Equal(t, []string{path}, w.Files())

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Add(path), ErrClosed)

	_, open := <-w.Events()
	assert.False(t, open)
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "NONE", Op(0).String())
	assert.Equal(t, "WRITE", OpWrite.String())
	assert.Equal(t, "CREATE|RENAME", (OpCreate | OpRename).String())
}
