package study

import "time"

// Watermark conditions control whether the AI-disclosure overlay is shown.
const (
	WatermarkVisible = "visible"
	WatermarkHidden  = "hidden"
)

// Session captures one participant's transient conversation state.
type Session struct {
	ID                 string    `json:"id"`
	ParticipantID      string    `json:"participantId"`
	Style              string    `json:"style"`
	WatermarkCondition string    `json:"watermarkCondition"`
	CreatedAt          time.Time `json:"createdAt"`
}
