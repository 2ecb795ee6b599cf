package study

import "time"

// Turn roles as sent to the model provider and stored in transcripts.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single role-tagged entry in a session's in-memory history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message persists individual turns for the research transcript.
type Message struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participantId"`
	MessageNum    int       `json:"messageNum"`
	Sender        string    `json:"sender"`
	Content       string    `json:"content"`
	CrisisKeyword bool      `json:"crisisKeyword"`
	CreatedAt     time.Time `json:"createdAt"`
}
