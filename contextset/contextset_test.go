package contextset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/hybrid/tokens"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestBuild_ExplicitFiles(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"main.go":    "package main\n",
		"handler.go": "package main\n\nfunc handle() {}\n",
	})

	set, err := Build(Options{Root: root, Files: []string{"main.go", "handler.go"}})
	require.NoError(t, err)
	require.Len(t, set.Entries, 2)
	assert.Equal(t, []string{"main.go", "handler.go"}, set.Paths())
	assert.Equal(t, "package main\n", set.Entries[0].Content)
}

func TestBuild_MissingExplicitFileFails(t *testing.T) {
	root := writeFiles(t, nil)

	_, err := Build(Options{Root: root, Files: []string{"ghost.go"}})
	assert.Error(t, err)
}

func TestBuild_GlobExpansion(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"a.sql":      "select 1;",
		"b.sql":      "select 2;",
		"ignored.go": "package x\n",
	})

	set, err := Build(Options{Root: root, Globs: []string{"*.sql"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.sql", "b.sql"}, set.Paths())
}

func TestBuild_EmptyGlobIsFine(t *testing.T) {
	root := writeFiles(t, nil)

	set, err := Build(Options{Root: root, Globs: []string{"*.nothing"}})
	require.NoError(t, err)
	assert.Empty(t, set.Entries)
}

func TestBuild_DedupePreservesFirstSeenOrder(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"a.go": "package a\n",
		"b.go": "package a\n",
	})

	set, err := Build(Options{
		Root:  root,
		Files: []string{"b.go", "a.go"},
		Globs: []string{"*.go"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.go", "a.go"}, set.Paths())
}

func TestBuild_InferRelatedPullsTestFile(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"store.go":      "package store\n",
		"store_test.go": "package store\n",
	})

	set, err := Build(Options{Root: root, Files: []string{"store.go"}, InferRelated: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"store.go", "store_test.go"}, set.Paths())
}

func TestBuild_InferRelatedFromTestFile(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"store.go":      "package store\n",
		"store_test.go": "package store\n",
	})

	set, err := Build(Options{Root: root, Files: []string{"store_test.go"}, InferRelated: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"store_test.go", "store.go"}, set.Paths())
}

func TestBuild_InferRelatedMissingCompanionSkipped(t *testing.T) {
	root := writeFiles(t, map[string]string{"lone.go": "package lone\n"})

	set, err := Build(Options{Root: root, Files: []string{"lone.go"}, InferRelated: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"lone.go"}, set.Paths())
}

func TestBuild_BudgetTruncatesOversizedFile(t *testing.T) {
	big := "package big\n" + strings.Repeat("// filler line\n", 5000)
	root := writeFiles(t, map[string]string{"big.go": big})

	set, err := Build(Options{
		Root:   root,
		Files:  []string{"big.go"},
		Budget: tokens.NewBudget(4096),
	})
	require.NoError(t, err)
	require.Len(t, set.Entries, 1)
	assert.True(t, set.Entries[0].Truncated)
	assert.True(t, strings.HasPrefix(set.Entries[0].Content, "package big"), "head survives truncation")
	assert.Less(t, len(set.Entries[0].Content), len(big))
}

func TestBuild_StdinLabelDefaults(t *testing.T) {
	set, err := Build(Options{Root: t.TempDir(), Stdin: "panic: oh no\n"})
	require.NoError(t, err)
	assert.Equal(t, "stdin", set.StdinLabel)

	set, err = Build(Options{Root: t.TempDir(), Stdin: "log", StdinLabel: "test output"})
	require.NoError(t, err)
	assert.Equal(t, "test output", set.StdinLabel)
}

func TestBuild_AbsolutePathOutsideRootRejected(t *testing.T) {
	root := writeFiles(t, nil)
	outside := filepath.Join(t.TempDir(), "evil.go")
	require.NoError(t, os.WriteFile(outside, []byte("package evil\n"), 0o644))

	_, err := Build(Options{Root: root, Files: []string{outside}})
	assert.Error(t, err)
}
