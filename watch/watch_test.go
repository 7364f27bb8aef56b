package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reloadCounter struct {
	mu sync.Mutex
	n  int
}

func (c *reloadCounter) bump() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *reloadCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestReloadOnWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "score.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: one\n"), 0644))

	var c reloadCounter
	w, err := New(path, c.bump)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("title: two\n"), 0644))
	require.Eventually(t, func() bool { return c.count() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestReloadOnReplace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "score.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: one\n"), 0644))

	var c reloadCounter
	w, err := New(path, c.bump)
	require.NoError(t, err)
	defer w.Close()

	// editors write a temp file and rename it over the original
	tmp := filepath.Join(dir, "score.yaml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("title: two\n"), 0644))
	require.NoError(t, os.Rename(tmp, path))
	require.Eventually(t, func() bool { return c.count() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestOtherFilesAreIgnored(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "score.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: one\n"), 0644))

	var c reloadCounter
	w, err := New(path, c.bump)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.Never(t, func() bool { return c.count() > 0 }, 300*time.Millisecond, 20*time.Millisecond)
}

func TestBurstCoalesces(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "score.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: one\n"), 0644))

	var c reloadCounter
	w, err := New(path, c.bump)
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("title: two\n"), 0644))
	}
	require.Eventually(t, func() bool { return c.count() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(2 * settle)
	assert.Less(t, c.count(), 5, "a burst of writes should settle into few reloads")
}

func TestCloseTwice(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "score.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: one\n"), 0644))

	var c reloadCounter
	w, err := New(path, c.bump)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestMissingDirectory(t *testing.T) {
	t.Parallel()

	var c reloadCounter
	_, err := New(filepath.Join(t.TempDir(), "nope", "score.yaml"), c.bump)
	require.Error(t, err)
}
