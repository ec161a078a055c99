package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/randalmurphal/hybrid/config"
)

func TestRepairSettings(t *testing.T) {
	s := repairSettings(config.Default())

	assert.Equal(t, "always", s.Apply.Mode, "fixes must land to change the next run")
	assert.Equal(t, 0, s.MaxAttempts, "fix prompts go straight to the fallback backend")
	assert.NotEmpty(t, s.CodexCLI.Models, "fallback stays configured")
}
