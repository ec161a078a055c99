// Package gitapply applies validated diffs to a working tree through git.
//
// The engine never patches files itself. Every mutation goes through the
// git CLI: local changes are stashed, the diff is verified with
// `git apply --check`, applied, committed, and the stash restored. The
// restore is guaranteed on every exit path, including check and apply
// failures.
package gitapply
