// Package truncate cuts text down to token or line budgets before it goes
// into a prompt.
//
// Context file snapshots are the main customer: a source file that exceeds
// its share of a small model's context window is trimmed from the middle,
// keeping the top-of-file declarations and the tail where recent edits
// usually live. Test output for repair prompts keeps the tail only, since
// the failure summary is printed last.
//
// Strategies:
//
//   - FromEnd: drop the tail (default)
//   - FromMiddle: drop the middle, keep head and tail
//   - FromStart: drop the head
//
// All truncation counts runes, never bytes, so multi-byte characters are
// not split.
package truncate
