package study

import "time"

// Participant is the durable enrollment record for one study subject.
type Participant struct {
	ID                 string     `json:"id"`
	Style              string     `json:"style"`
	WatermarkCondition string     `json:"watermarkCondition"`
	ProlificID         string     `json:"prolificId,omitempty"`
	StartTime          time.Time  `json:"startTime"`
	EndTime            *time.Time `json:"endTime,omitempty"`
	TotalMessages      int        `json:"totalMessages"`
	Completed          bool       `json:"completed"`
	CrisisFlagged      bool       `json:"crisisFlagged"`
	FeedbackText       string     `json:"feedbackText,omitempty"`
	FeedbackRating     int        `json:"feedbackRating,omitempty"`
}

// Crisis flag types distinguish detector hits from researcher-added flags.
const (
	FlagAutomatic = "automatic"
	FlagManual    = "manual"
)

// CrisisFlag records a crisis-keyword detection for researcher review.
type CrisisFlag struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participantId"`
	MessageID     string    `json:"messageId"`
	Keyword       string    `json:"keyword"`
	FlagType      string    `json:"flagType"`
	Reviewed      bool      `json:"reviewed"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
