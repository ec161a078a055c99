// Package codexcli provides the fallback diff-generating backend, wrapping
// the codex-local CLI binary.
//
// The binary is invoked once per attempt with the prompt and context file
// flags; it is expected to print ONLY a unified diff on stdout. Model lists
// may carry weights ("phi3:mini|3,codellama:7b") which are expanded into
// repeated entries before being handed to the binary.
package codexcli
