package safety

import (
	"strings"
	"testing"

	"github.com/empathicai21/Empathic-AI-Research/internal/prompt"
)

func TestCheckMatchesWholeWordsOnly(t *testing.T) {
	d := NewDetector([]string{"die"}, "")

	if ok, _, _ := d.Check("my diesel engine died down"); ok {
		t.Fatal("substring inside a longer word must not match")
	}

	ok, keyword, err := d.Check("I think I might die")
	if err != nil {
		t.Fatalf("Check err: %v", err)
	}
	if !ok || keyword != "die" {
		t.Fatalf("expected whole-word match, got ok=%v keyword=%q", ok, keyword)
	}
}

func TestCheckCaseInsensitive(t *testing.T) {
	d := NewDetector([]string{"end it all"}, "")

	ok, keyword, _ := d.Check("I want to END IT ALL")
	if !ok || keyword != "end it all" {
		t.Fatalf("expected case-insensitive match, got ok=%v keyword=%q", ok, keyword)
	}
}

func TestCheckFirstMatchWins(t *testing.T) {
	d := NewDetector([]string{"hopeless", "give up"}, "")

	_, keyword, _ := d.Check("I feel hopeless and want to give up")
	if keyword != "hopeless" {
		t.Fatalf("expected the earlier-listed keyword, got %q", keyword)
	}
}

func TestCheckNoMatch(t *testing.T) {
	d := NewDetector(nil, "")

	ok, keyword, err := d.Check("today was actually a pretty good day")
	if err != nil {
		t.Fatalf("Check err: %v", err)
	}
	if ok || keyword != "" {
		t.Fatalf("unexpected match: ok=%v keyword=%q", ok, keyword)
	}
}

func TestEmptyKeywordListFallsBackToDefaults(t *testing.T) {
	d := NewDetector(nil, "")

	if got := len(d.Keywords()); got != len(DefaultKeywords) {
		t.Fatalf("expected %d default keywords, got %d", len(DefaultKeywords), got)
	}
	ok, keyword, _ := d.Check("there is no reason to live anymore")
	if !ok || keyword != "no reason to live" {
		t.Fatalf("default keywords not active: ok=%v keyword=%q", ok, keyword)
	}
}

func TestCrisisResponseDefaultsToBuiltInText(t *testing.T) {
	d := NewDetector(nil, "")

	text := d.CrisisResponse()
	if text != prompt.DefaultCrisisResponse {
		t.Fatalf("expected built-in safety text, got %q", text)
	}
	if !strings.Contains(text, "911") || !strings.Contains(text, "988") {
		t.Fatalf("safety text missing hotline numbers: %q", text)
	}
}

func TestCrisisResponseOverride(t *testing.T) {
	d := NewDetector(nil, "custom safety text")

	if got := d.CrisisResponse(); got != "custom safety text" {
		t.Fatalf("override ignored, got %q", got)
	}
}

func TestAddAndRemoveKeyword(t *testing.T) {
	d := NewDetector([]string{"hopeless"}, "")

	d.AddKeyword("self harm")
	d.AddKeyword("self harm") // duplicate, ignored
	if got := len(d.Keywords()); got != 2 {
		t.Fatalf("expected 2 keywords after add, got %d", got)
	}
	if ok, _, _ := d.Check("thinking about self harm"); !ok {
		t.Fatal("added keyword not matched")
	}

	d.RemoveKeyword("self harm")
	d.RemoveKeyword("never listed") // no-op
	if ok, _, _ := d.Check("thinking about self harm"); ok {
		t.Fatal("removed keyword still matched")
	}
	if got := d.Keywords(); len(got) != 1 || got[0] != "hopeless" {
		t.Fatalf("unexpected keyword list after remove: %v", got)
	}
}
