// Package solve runs the end-to-end pipeline: assemble a prompt from the
// request and its context files, obtain a unified diff from the primary
// backend with CLI fallback, validate it, and hand it to the git apply
// engine. Every invocation is recorded in the run log; validated diffs are
// cached by request fingerprint.
package solve
