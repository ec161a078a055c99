package validate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = "--- a/app.py\n+++ b/app.py\n@@ -1 +1 @@\n-print('hi')\n+print('bye')\n"

// fakeRunner scripts a Runner response.
type fakeRunner struct {
	exitCode int
	stdout   string
	stderr   string
	err      error

	gotStdin string
	gotArgv  []string
	calls    int
}

func (f *fakeRunner) Run(ctx context.Context, argv []string, stdin string) (int, string, string, error) {
	f.calls++
	f.gotArgv = argv
	f.gotStdin = stdin
	return f.exitCode, f.stdout, f.stderr, f.err
}

func TestPassThroughWhenUnconfigured(t *testing.T) {
	v := New(nil, &fakeRunner{})

	res := v.Check(context.Background(), sampleDiff)
	assert.Equal(t, Approved, res.Outcome)
	assert.Equal(t, sampleDiff, res.Diff)
	assert.False(t, v.Configured())
}

func TestApproved(t *testing.T) {
	runner := &fakeRunner{exitCode: 0}
	v := New([]string{"validate-diff"}, runner)

	res := v.Check(context.Background(), sampleDiff)
	assert.Equal(t, Approved, res.Outcome)
	assert.Equal(t, sampleDiff, res.Diff)
	assert.Equal(t, sampleDiff, runner.gotStdin, "diff must arrive on stdin")
	assert.Equal(t, []string{"validate-diff"}, runner.gotArgv)
	assert.Equal(t, 1, runner.calls, "validator runs at most once")
}

func TestRejected(t *testing.T) {
	runner := &fakeRunner{exitCode: 1, stderr: "forbidden file\n"}
	v := New([]string{"validate-diff"}, runner)

	res := v.Check(context.Background(), sampleDiff)
	assert.Equal(t, Rejected, res.Outcome)
	assert.Equal(t, "forbidden file", res.Message)
	assert.Empty(t, res.Diff)
}

func TestRejected_MessageFallsBackToStdout(t *testing.T) {
	runner := &fakeRunner{exitCode: 2, stdout: "bad hunk header"}
	v := New([]string{"validate-diff"}, runner)

	res := v.Check(context.Background(), sampleDiff)
	assert.Equal(t, Rejected, res.Outcome)
	assert.Equal(t, "bad hunk header", res.Message)
}

func TestRewritten(t *testing.T) {
	rewritten := "--- a/app.py\n+++ b/app.py\n@@ -1 +1 @@\n-print('hi')\n+print('HELLO')"
	runner := &fakeRunner{exitCode: 0, stdout: rewritten}
	v := New([]string{"validate-diff"}, runner)

	res := v.Check(context.Background(), sampleDiff)
	assert.Equal(t, Rewritten, res.Outcome)
	assert.Equal(t, rewritten+"\n", res.Diff)
}

func TestEchoedDiffIsApprovalNotRewrite(t *testing.T) {
	runner := &fakeRunner{exitCode: 0, stdout: sampleDiff}
	v := New([]string{"validate-diff"}, runner)

	res := v.Check(context.Background(), sampleDiff)
	assert.Equal(t, Approved, res.Outcome)
}

func TestCrashFailsClosed(t *testing.T) {
	runner := &fakeRunner{err: errors.New("fork failed")}
	v := New([]string{"validate-diff"}, runner)

	res := v.Check(context.Background(), sampleDiff)
	assert.Equal(t, Rejected, res.Outcome)
	assert.Contains(t, res.Message, "fork failed")
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("validator scripts require a POSIX shell")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "validator.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ncat >/dev/null\necho rejected because reasons >&2\nexit 1\n"), 0o755))

	v := New([]string{script}, &ExecRunner{Dir: dir})
	res := v.Check(context.Background(), sampleDiff)
	assert.Equal(t, Rejected, res.Outcome)
	assert.Contains(t, res.Message, "rejected because reasons")
}

func TestExecRunner_TimeoutFailsClosed(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("validator scripts require a POSIX shell")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "slow.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 10\n"), 0o755))

	v := New([]string{script}, &ExecRunner{Dir: dir}).WithTimeout(100 * time.Millisecond)
	res := v.Check(context.Background(), sampleDiff)
	assert.Equal(t, Rejected, res.Outcome)
}
