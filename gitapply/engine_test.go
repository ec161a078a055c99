package gitapply

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = "--- a/main.go\n+++ b/main.go\n@@ -1 +1 @@\n-old\n+new\n"

// fakeGit records git invocations and scripts failures per subcommand.
type fakeGit struct {
	calls []string

	dirty    bool
	failOn   map[string]string // subcommand key -> stderr
	hasLocal map[string]bool   // branch name -> exists
}

func (f *fakeGit) Git(_ context.Context, args ...string) (string, string, error) {
	key := args[0]
	if key == "apply" && len(args) > 1 && args[1] == "--check" {
		key = "apply--check"
	}
	f.calls = append(f.calls, key)

	if msg, ok := f.failOn[key]; ok {
		return "", msg, errors.New("git " + key + " failed")
	}

	switch key {
	case "status":
		if f.dirty {
			return " M main.go\n", "", nil
		}
		return "", "", nil
	case "rev-parse":
		branch := strings.TrimPrefix(args[len(args)-1], "refs/heads/")
		if f.hasLocal[branch] {
			return "abc123\n", "", nil
		}
		return "", "", errors.New("unknown ref")
	}
	return "", "", nil
}

func (f *fakeGit) called(key string) bool {
	for _, c := range f.calls {
		if c == key {
			return true
		}
	}
	return false
}

func TestApply_PreviewNeverTouchesTree(t *testing.T) {
	git := &fakeGit{}
	e := New(t.TempDir(), git)

	res, err := e.Apply(context.Background(), sampleDiff, Options{Mode: ModeNever})
	require.NoError(t, err)
	assert.Equal(t, Previewed, res.Outcome)
	assert.True(t, git.called("apply--check"))
	assert.False(t, git.called("apply"))
	assert.False(t, git.called("commit"))
}

func TestApply_AlwaysAppliesAndCommits(t *testing.T) {
	git := &fakeGit{}
	e := New(t.TempDir(), git)

	res, err := e.Apply(context.Background(), sampleDiff, Options{
		Mode:          ModeAlways,
		TouchedFiles:  []string{"main.go"},
		CommitMessage: "fix greeting",
	})
	require.NoError(t, err)
	assert.Equal(t, Applied, res.Outcome)
	assert.True(t, res.Committed)
	assert.Equal(t, []string{"status", "apply--check", "apply", "add", "commit"}, git.calls)
}

func TestApply_DirtyTreeStashRoundTrip(t *testing.T) {
	git := &fakeGit{dirty: true}
	e := New(t.TempDir(), git)

	res, err := e.Apply(context.Background(), sampleDiff, Options{Mode: ModeAlways})
	require.NoError(t, err)
	assert.Equal(t, Applied, res.Outcome)
	assert.True(t, res.Stashed)
	assert.True(t, res.Restored)
	assert.Equal(t, "stash", git.calls[1])
	assert.Equal(t, "stash", git.calls[len(git.calls)-1], "pop must run last")
}

func TestApply_StashRestoredOnCheckFailure(t *testing.T) {
	git := &fakeGit{
		dirty:  true,
		failOn: map[string]string{"apply--check": "error: patch does not apply"},
	}
	e := New(t.TempDir(), git)

	res, err := e.Apply(context.Background(), sampleDiff, Options{Mode: ModeAlways})
	require.NoError(t, err)
	assert.Equal(t, CheckFailed, res.Outcome)
	assert.True(t, res.Restored, "stash must be restored even when the check fails")
	assert.Contains(t, res.Messages[0], "does not apply")
	assert.False(t, git.called("apply"))
}

func TestApply_AskDeclined(t *testing.T) {
	git := &fakeGit{}
	e := New(t.TempDir(), git)

	res, err := e.Apply(context.Background(), sampleDiff, Options{
		Mode:   ModeAsk,
		Prompt: func(string) bool { return false },
	})
	require.NoError(t, err)
	assert.Equal(t, Declined, res.Outcome)
	assert.False(t, git.called("apply"))
}

func TestApply_AskWithoutPrompterDeclines(t *testing.T) {
	git := &fakeGit{}
	e := New(t.TempDir(), git)

	res, err := e.Apply(context.Background(), sampleDiff, Options{Mode: ModeAsk})
	require.NoError(t, err)
	assert.Equal(t, Declined, res.Outcome)
}

func TestApply_CommitFailureIsPartialApply(t *testing.T) {
	git := &fakeGit{failOn: map[string]string{"commit": "nothing to commit"}}
	e := New(t.TempDir(), git)

	res, err := e.Apply(context.Background(), sampleDiff, Options{Mode: ModeAlways})
	require.NoError(t, err)
	assert.Equal(t, PartialApply, res.Outcome)
	assert.False(t, res.Committed)
	assert.Contains(t, res.Messages[0], "applied but not committed")
}

func TestApply_BranchCreatedWhenMissing(t *testing.T) {
	git := &fakeGit{hasLocal: map[string]bool{}}
	e := New(t.TempDir(), git)

	res, err := e.Apply(context.Background(), sampleDiff, Options{Mode: ModeAlways, Branch: "hybrid/fix"})
	require.NoError(t, err)
	assert.Equal(t, "hybrid/fix", res.Branch)
	assert.True(t, git.called("checkout"))
}

func TestApply_ExistingBranchCheckedOut(t *testing.T) {
	git := &fakeGit{hasLocal: map[string]bool{"hybrid/fix": true}}
	e := New(t.TempDir(), git)

	res, err := e.Apply(context.Background(), sampleDiff, Options{Mode: ModeAlways, Branch: "hybrid/fix"})
	require.NoError(t, err)
	assert.Equal(t, "hybrid/fix", res.Branch)
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"always", "ask", "never"} {
		m, err := ParseMode(valid)
		require.NoError(t, err)
		assert.Equal(t, Mode(valid), m)
	}

	_, err := ParseMode("sometimes")
	assert.Error(t, err)
}
