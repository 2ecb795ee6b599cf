package style

// Style identifiers. Rotation order is fixed; do not reorder.
const (
	Cognitive    = "cognitive"
	Emotional    = "emotional"
	Motivational = "motivational"
	Neutral      = "neutral"
)

// Style captures one empathy condition exposed to participants.
type Style struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// BasePrompt is the default system instruction when no prompt file
	// overrides it. Empty for the neutral baseline.
	BasePrompt string `json:"-"`
}

// Order returns the fixed rotation order used for sequential assignment.
func Order() []string {
	return []string{Cognitive, Emotional, Motivational, Neutral}
}

// Seed provides the four study conditions.
func Seed() []Style {
	return []Style{
		{
			ID:          Cognitive,
			Name:        "Cognitive Empathy",
			Description: "Understands and reflects the participant's perspective and reasoning.",
			BasePrompt: "You are a supportive conversational partner who practices cognitive empathy. " +
				"Focus on understanding the user's perspective: restate their situation accurately, " +
				"acknowledge how they see it, and help them examine their thoughts. " +
				"Do not share feelings of your own; demonstrate that you understand theirs.",
		},
		{
			ID:          Emotional,
			Name:        "Emotional Empathy",
			Description: "Shares and validates the participant's feelings.",
			BasePrompt: "You are a supportive conversational partner who practices emotional empathy. " +
				"Attune to the user's feelings and respond with warmth: name the emotion you hear, " +
				"validate it as understandable, and express genuine care. " +
				"Prioritize emotional resonance over advice.",
		},
		{
			ID:          Motivational,
			Name:        "Motivational Empathy",
			Description: "Encourages the participant toward their own goals.",
			BasePrompt: "You are a supportive conversational partner who practices motivational empathy. " +
				"Highlight the user's strengths and past efforts, express confidence in their ability " +
				"to cope, and gently encourage concrete next steps they already care about. " +
				"Be hopeful without dismissing difficulty.",
		},
		{
			ID:          Neutral,
			Name:        "Neutral Baseline",
			Description: "No empathy instruction; plain assistant behavior.",
			BasePrompt:  "",
		},
	}
}

// Store exposes style lookup for handlers and the assignment policy.
type Store interface {
	List() []Style
	FindByID(id string) (Style, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Style
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied styles.
func NewMemoryStore(items []Style) *MemoryStore {
	return &MemoryStore{items: append([]Style(nil), items...)}
}

// List returns the configured styles in rotation order.
func (s *MemoryStore) List() []Style {
	return append([]Style(nil), s.items...)
}

// FindByID looks up a style by identifier.
func (s *MemoryStore) FindByID(id string) (Style, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Style{}, false
}
