// Package safety monitors participant messages for crisis keywords and
// supplies the fixed safety response used to short-circuit the model call.
package safety

import (
	"log"
	"regexp"
	"sync"

	"github.com/empathicai21/Empathic-AI-Research/internal/prompt"
)

// DefaultKeywords is used when no keyword configuration is provided, so
// detection is never silently disabled.
var DefaultKeywords = []string{
	"suicide",
	"kill myself",
	"end it all",
	"want to die",
	"no reason to live",
	"better off dead",
}

// Detector matches crisis keywords against user text. Matching is
// case-insensitive and whole-word bounded; keywords are evaluated in a fixed
// order and the first match wins. Add/Remove rebuild the compiled patterns
// under the lock so a matching pass never sees a half-updated set.
type Detector struct {
	mu       sync.RWMutex
	keywords []string
	patterns []*regexp.Regexp
	response string
}

// NewDetector builds a detector for the given keywords. An empty list falls
// back to DefaultKeywords. response overrides the built-in safety text.
func NewDetector(keywords []string, response string) *Detector {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	d := &Detector{
		keywords: append([]string(nil), keywords...),
		response: response,
	}
	d.patterns = compilePatterns(d.keywords)
	log.Printf("[safety] crisis detector initialized with %d keywords", len(d.keywords))
	return d
}

// Check reports whether message contains a crisis keyword and which one.
// The error return is part of the detector contract; this implementation
// never fails, but callers apply their failure policy to it regardless.
func (d *Detector) Check(message string) (bool, string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for i, pattern := range d.patterns {
		if pattern.MatchString(message) {
			log.Printf("[safety] crisis keyword detected: %q", d.keywords[i])
			return true, d.keywords[i], nil
		}
	}
	return false, "", nil
}

// CrisisResponse returns the fixed safety message for detected crises.
func (d *Detector) CrisisResponse() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.response != "" {
		return d.response
	}
	return prompt.DefaultCrisisResponse
}

// Keywords returns a snapshot of the monitored keyword list.
func (d *Detector) Keywords() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.keywords...)
}

// AddKeyword starts monitoring a new keyword. Duplicates are ignored.
func (d *Detector) AddKeyword(keyword string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.keywords {
		if existing == keyword {
			return
		}
	}
	d.keywords = append(d.keywords, keyword)
	d.patterns = compilePatterns(d.keywords)
	log.Printf("[safety] added crisis keyword: %q", keyword)
}

// RemoveKeyword stops monitoring a keyword. Unknown keywords are a no-op.
func (d *Detector) RemoveKeyword(keyword string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, existing := range d.keywords {
		if existing == keyword {
			d.keywords = append(d.keywords[:i], d.keywords[i+1:]...)
			d.patterns = compilePatterns(d.keywords)
			log.Printf("[safety] removed crisis keyword: %q", keyword)
			return
		}
	}
}

// compilePatterns builds word-boundary patterns so partial words never match
// (keyword "die" must not match inside "diesel").
func compilePatterns(keywords []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(keywords))
	for _, keyword := range keywords {
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(keyword)+`\b`))
	}
	return patterns
}
