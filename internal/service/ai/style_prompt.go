package ai

import (
	"fmt"

	"github.com/empathicai21/Empathic-AI-Research/internal/prompt"
)

// Assembler builds the system instruction sent on every turn: the style's
// base instruction (empty for the neutral baseline), a length policy, a
// style-consistency anchor, and an anti-repetition instruction. The full
// turn history is sent separately so short study conversations stay coherent.
type Assembler struct {
	source   *prompt.Source
	maxWords int
}

// NewAssembler creates a prompt assembler bound to a prompt source.
func NewAssembler(source *prompt.Source, maxWords int) *Assembler {
	return &Assembler{source: source, maxWords: maxWords}
}

// SystemPrompt composes the full instruction set for the given style.
func (a *Assembler) SystemPrompt(styleID string) string {
	basePrompt := a.source.StylePrompt(styleID)

	lengthPolicy := fmt.Sprintf(
		"Please keep responses concise, around %d words, and finish your thought with a complete sentence.",
		a.maxWords,
	)

	anchor := ""
	if basePrompt != "" {
		anchor = fmt.Sprintf(
			" Maintain the %s empathy style consistently throughout this conversation. Do not switch styles or tones.",
			styleID,
		)
	}

	antiRepeat := " Review the full conversation history before responding. " +
		"Do not repeat the same advice, suggestions, or phrasing you have already provided. " +
		"Build upon previous exchanges and offer new perspectives or information each time."

	if basePrompt == "" {
		return lengthPolicy + antiRepeat
	}
	return basePrompt + "\n\n" + lengthPolicy + anchor + antiRepeat
}

// MaxWords returns the configured soft word cap.
func (a *Assembler) MaxWords() int {
	return a.maxWords
}
