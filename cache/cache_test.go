package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "cache"), 0)

	entry := Entry{
		Diff:       "--- a/x\n+++ b/x\n@@ -1 +1 @@\n-old\n+new\n",
		Validation: "approved",
		Source:     "codex-cli",
		Prompt:     "change x",
	}
	require.NoError(t, s.Put("abc123", entry))

	got, ok, err := s.Get("abc123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry.Diff, got.Diff)
	assert.Equal(t, "approved", got.Validation)
	assert.Equal(t, "codex-cli", got.Source)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGet_Miss(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "cache"), 0)

	got, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestGet_CorruptMetadataStillServesDiff(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	s := NewStore(dir, 0)
	require.NoError(t, s.Put("k", Entry{Diff: "diff text", Validation: "approved"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "k.json"), []byte("{broken"), 0o644))

	got, ok, err := s.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "diff text", got.Diff)
}

func TestPrune(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	s := NewStore(dir, 2)

	for i, key := range []string{"old", "mid", "new"} {
		require.NoError(t, s.Put(key, Entry{Diff: key, Validation: "approved"}))
		// Spread mtimes so ordering is deterministic.
		mod := time.Now().Add(time.Duration(i-3) * time.Hour)
		require.NoError(t, os.Chtimes(filepath.Join(dir, key+".diff"), mod, mod))
	}
	// A fourth Put triggers pruning of everything beyond the newest two.
	require.NoError(t, s.Put("newest", Entry{Diff: "newest", Validation: "approved"}))

	_, ok, err := s.Get("old")
	require.NoError(t, err)
	assert.False(t, ok, "oldest entry should be pruned")

	for _, key := range []string{"new", "newest"} {
		_, ok, err := s.Get(key)
		require.NoError(t, err)
		assert.True(t, ok, "entry %s should survive", key)
	}

	// Sidecar metadata goes with the diff.
	_, err = os.Stat(filepath.Join(dir, "old.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestPrune_UnstattableEntries(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	s := NewStore(dir, 3)

	require.NoError(t, s.Put("only", Entry{Diff: "only", Validation: "approved"}))
	// Dangling symlinks match the glob but fail Stat, leaving fewer
	// statted entries than matched files.
	for _, name := range []string{"gone1.diff", "gone2.diff", "gone3.diff"} {
		require.NoError(t, os.Symlink(filepath.Join(dir, "missing-target"), filepath.Join(dir, name)))
	}

	require.NoError(t, s.prune())

	_, ok, err := s.Get("only")
	require.NoError(t, err)
	assert.True(t, ok, "real entry survives")
}
