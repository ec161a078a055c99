// Package ollama provides the primary diff-generating backend, talking to a
// local Ollama server over its /api/generate HTTP endpoint.
//
// The client sends the assembled prompt with temperature 0 and streaming
// disabled, so each attempt returns a single JSON document. Some Ollama
// builds reply with NDJSON even when streaming is off; the client tolerates
// that by parsing the final line.
//
// When structured output is enabled, the request carries a "format" field
// holding a JSON schema (reflected from the reply payload type), which
// constrains the model to emit a JSON object with a "diff" field.
package ollama
