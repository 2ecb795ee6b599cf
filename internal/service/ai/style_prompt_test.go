package ai

import (
	"strings"
	"testing"

	"github.com/empathicai21/Empathic-AI-Research/internal/model/style"
	"github.com/empathicai21/Empathic-AI-Research/internal/prompt"
)

func newTestAssembler() *Assembler {
	return NewAssembler(prompt.NewSource("", style.NewMemoryStore(style.Seed())), 150)
}

func TestSystemPromptStyledLayout(t *testing.T) {
	a := newTestAssembler()

	got := a.SystemPrompt(style.Cognitive)
	base := prompt.NewSource("", style.NewMemoryStore(style.Seed())).StylePrompt(style.Cognitive)

	if !strings.HasPrefix(got, base+"\n\n") {
		t.Fatal("styled prompt must start with the base instruction")
	}
	if !strings.Contains(got, "around 150 words") {
		t.Fatal("length policy missing or not using the configured cap")
	}
	if !strings.Contains(got, "Maintain the cognitive empathy style") {
		t.Fatal("style-consistency anchor missing")
	}
	if !strings.Contains(got, "Do not repeat the same advice") {
		t.Fatal("anti-repetition instruction missing")
	}
}

func TestSystemPromptNeutralOmitsBaseAndAnchor(t *testing.T) {
	a := newTestAssembler()

	got := a.SystemPrompt(style.Neutral)
	if strings.Contains(got, "Maintain the") {
		t.Fatal("neutral prompt must not carry a style anchor")
	}
	if !strings.HasPrefix(got, "Please keep responses concise") {
		t.Fatalf("neutral prompt must start with the length policy, got %q", got)
	}
	if !strings.Contains(got, "Do not repeat the same advice") {
		t.Fatal("anti-repetition instruction missing from neutral prompt")
	}
}

func TestSystemPromptUnknownStyleFallsBackToBaseline(t *testing.T) {
	a := newTestAssembler()

	got := a.SystemPrompt("unlisted")
	if strings.Contains(got, "Maintain the") {
		t.Fatal("unknown style must be treated like the baseline, without an anchor")
	}
}

func TestMaxWords(t *testing.T) {
	if got := newTestAssembler().MaxWords(); got != 150 {
		t.Fatalf("MaxWords = %d, want 150", got)
	}
}
