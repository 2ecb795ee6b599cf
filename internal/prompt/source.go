// Package prompt supplies the base instruction text per empathy style and
// the fixed crisis safety text. Prompt files are optional overrides; a
// missing file resolves to the built-in default, never an error.
package prompt

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/empathicai21/Empathic-AI-Research/internal/model/style"
)

// DefaultCrisisResponse is returned when no crisis_response.txt override
// exists. This text is never model-generated.
const DefaultCrisisResponse = `I'm concerned about what you're sharing and want you to know that help is available right now.

If you're in immediate danger, please call 911.

For crisis support:
- Call or text 988 (Suicide & Crisis Lifeline)
- Text HOME to 741741 (Crisis Text Line)

I'm not a licensed therapist, but these trained professionals can provide immediate, specialized support. Your life matters, and there are people who want to help you through this difficult time.`

// Source resolves prompt text for styles and the crisis response.
type Source struct {
	dir    string
	styles style.Store
}

// NewSource creates a prompt source reading overrides from dir. An empty dir
// disables file overrides and serves built-in defaults only.
func NewSource(dir string, styles style.Store) *Source {
	return &Source{dir: dir, styles: styles}
}

// StylePrompt returns the base instruction for the given style. File override
// wins over the seeded default; unknown styles resolve to an empty string.
func (s *Source) StylePrompt(styleID string) string {
	if text := s.readFile(fmt.Sprintf("%s_empathy_prompt.txt", styleID)); text != "" {
		return text
	}
	st, ok := s.styles.FindByID(styleID)
	if !ok {
		return ""
	}
	return st.BasePrompt
}

// CrisisResponse returns the fixed safety message shown on crisis detection.
func (s *Source) CrisisResponse() string {
	if text := s.readFile("crisis_response.txt"); text != "" {
		return text
	}
	return DefaultCrisisResponse
}

func (s *Source) readFile(name string) string {
	if s.dir == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[prompt] failed to read %s: %v", name, err)
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}
