package tokens

import (
	"strings"
	"testing"
)

func TestNewBudget_DefaultSplit(t *testing.T) {
	b := NewBudget(4096)

	if b.Total != 4096 {
		t.Errorf("Total = %d, want 4096", b.Total)
	}
	if b.Preamble != 409 {
		t.Errorf("Preamble = %d, want 409", b.Preamble)
	}
	if b.Context != 2252 {
		t.Errorf("Context = %d, want 2252", b.Context)
	}
	if b.Prompt != 614 {
		t.Errorf("Prompt = %d, want 614", b.Prompt)
	}
	if b.Reserved != 819 {
		t.Errorf("Reserved = %d, want 819", b.Reserved)
	}
}

func TestForModel(t *testing.T) {
	b := ForModel("phi3:mini")
	if b.Total != 4096 {
		t.Errorf("Total = %d, want 4096", b.Total)
	}

	b = ForModel("mystery")
	if b.Total != DefaultWindow {
		t.Errorf("Total = %d, want %d", b.Total, DefaultWindow)
	}
}

func TestFitsContext(t *testing.T) {
	b := NewBudget(4096) // context allowance 2252 tokens ~ 9008 chars

	if !b.FitsContext(strings.Repeat("x", 9000)) {
		t.Error("expected 9000 chars to fit context allowance")
	}
	if b.FitsContext(strings.Repeat("x", 20000)) {
		t.Error("expected 20000 chars to exceed context allowance")
	}
}

func TestRemainingContext(t *testing.T) {
	b := NewBudget(4096)

	if got := b.RemainingContext(2000); got != b.Context-2000 {
		t.Errorf("RemainingContext(2000) = %d, want %d", got, b.Context-2000)
	}
	if got := b.RemainingContext(b.Context + 100); got != 0 {
		t.Errorf("RemainingContext over budget = %d, want 0", got)
	}
}

func TestPerFileContext(t *testing.T) {
	b := NewBudget(4096)

	if got := b.PerFileContext(4); got != b.Context/4 {
		t.Errorf("PerFileContext(4) = %d, want %d", got, b.Context/4)
	}
	if got := b.PerFileContext(0); got != b.Context {
		t.Errorf("PerFileContext(0) = %d, want whole allowance %d", got, b.Context)
	}
}
