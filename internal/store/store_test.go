package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hubState struct {
	Selected []string `json:"selected"`
	Endpoint string   `json:"endpoint"`
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(dir, WithDebounce(time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, dir
}

func TestStore_WriteThenReload(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir)
	require.NoError(t, err)
	s.Put(NSModelHub, "state", hubState{Selected: []string{"qwen3-8b"}, Endpoint: "http://x"})
	require.NoError(t, s.Close())

	// Simulated reload: a fresh store over the same dir sees identical state.
	s2, err := New(dir)
	require.NoError(t, err)
	defer s2.Close()
	var got hubState
	require.True(t, s2.Get(NSModelHub, "state", &got))
	assert.Equal(t, []string{"qwen3-8b"}, got.Selected)
	assert.Equal(t, "http://x", got.Endpoint)
}

func TestStore_MissingKeyKeepsDefault(t *testing.T) {
	s, _ := newTestStore(t)
	got := hubState{Endpoint: "default"}
	assert.False(t, s.Get(NSModelHub, "absent", &got))
	assert.Equal(t, "default", got.Endpoint)
}

func TestStore_CorruptValueFallsBack(t *testing.T) {
	s, _ := newTestStore(t)
	s.Put(NSPlayground, "k", "just a string")
	var got hubState
	assert.False(t, s.Get(NSPlayground, "k", &got))
}

func TestStore_CorruptFileStartsFresh(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, NSModelHub+".json"), []byte("{not json"), 0o644))

	s, err := New(dir)
	require.NoError(t, err)
	defer s.Close()
	var got hubState
	assert.False(t, s.Get(NSModelHub, "state", &got))
	s.Put(NSModelHub, "state", hubState{Endpoint: "e"})
	require.True(t, s.Get(NSModelHub, "state", &got))
}

func TestStore_DebouncedFlush(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer s.Close()

	s.Put(NSStressTest, "active", "s-1")
	// Not on disk yet.
	_, statErr := os.Stat(filepath.Join(dir, NSStressTest+".json"))
	assert.True(t, os.IsNotExist(statErr))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, NSStressTest+".json"))
		return err == nil
	}, time.Second, 5*time.Millisecond)
}

func TestStore_Delete(t *testing.T) {
	s, _ := newTestStore(t)
	s.Put(NSModelHub, "k", "v")
	s.Delete(NSModelHub, "k")
	var got string
	assert.False(t, s.Get(NSModelHub, "k", &got))
}

func TestStore_Reset(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	defer s.Close()

	s.Put(NSModelHub, "a", 1)
	s.Put(NSStressTest, "b", 2)
	require.NoError(t, s.Flush())
	require.NoError(t, s.Reset())

	var got int
	assert.False(t, s.Get(NSModelHub, "a", &got))
	_, statErr := os.Stat(filepath.Join(dir, NSModelHub+".json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestStore_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(StateDirEnv, dir)
	s, err := New("")
	require.NoError(t, err)
	defer s.Close()
	s.Put(NSModelHub, "k", "v")
	require.NoError(t, s.Flush())
	_, statErr := os.Stat(filepath.Join(dir, NSModelHub+".json"))
	assert.NoError(t, statErr)
}
