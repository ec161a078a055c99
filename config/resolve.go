package config

import "github.com/randalmurphal/hybrid/session"

// Flags carries explicit command-line overrides. Zero values mean "not
// set"; pointer fields distinguish unset from explicit zero.
type Flags struct {
	Prompt         string
	Preamble       string
	Files          []string
	Globs          []string
	InferRelated   *bool
	PrimaryModel   string
	FallbackModels string
	MaxAttempts    *int
	ApplyMode      string
	Branch         string
}

// Settings are the fully resolved inputs for one run.
type Settings struct {
	Config

	Prompt       string
	Files        []string
	Globs        []string
	InferRelated bool
}

// Resolve merges flags over a loaded session over the config file over
// defaults. The session is nil except for --repeat runs.
func Resolve(cfg Config, sess *session.Record, flags Flags) Settings {
	s := Settings{Config: cfg}

	if sess != nil {
		s.Prompt = sess.Prompt
		if sess.Preamble != "" {
			s.Preamble = sess.Preamble
		}
		s.Files = sess.Files
		s.Globs = sess.Globs
		s.InferRelated = sess.InferRelated
		if sess.PrimaryModel != "" {
			s.Ollama.Model = sess.PrimaryModel
		}
		if sess.FallbackModels != "" {
			s.CodexCLI.Models = sess.FallbackModels
		}
		if sess.MaxAttempts != nil {
			s.MaxAttempts = *sess.MaxAttempts
		}
		if sess.ApplyMode != "" {
			s.Apply.Mode = sess.ApplyMode
		}
		if sess.Branch != "" {
			s.Apply.Branch = sess.Branch
		}
	}

	if flags.Prompt != "" {
		s.Prompt = flags.Prompt
	}
	if flags.Preamble != "" {
		s.Preamble = flags.Preamble
	}
	if len(flags.Files) > 0 {
		s.Files = flags.Files
	}
	if len(flags.Globs) > 0 {
		s.Globs = flags.Globs
	}
	if flags.InferRelated != nil {
		s.InferRelated = *flags.InferRelated
	}
	if flags.PrimaryModel != "" {
		s.Ollama.Model = flags.PrimaryModel
	}
	if flags.FallbackModels != "" {
		s.CodexCLI.Models = flags.FallbackModels
	}
	if flags.MaxAttempts != nil {
		s.MaxAttempts = *flags.MaxAttempts
	}
	if flags.ApplyMode != "" {
		s.Apply.Mode = flags.ApplyMode
	}
	if flags.Branch != "" {
		s.Apply.Branch = flags.Branch
	}
	return s
}
