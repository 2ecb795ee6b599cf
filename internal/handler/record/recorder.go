// Package record persists turn exchanges and crisis flags on behalf of the
// HTTP transports. Persistence failures are logged, never surfaced to the
// participant: the conversation continues even when the store is down.
package record

import (
	"context"
	"log"

	"github.com/empathicai21/Empathic-AI-Research/internal/model/study"
	"github.com/empathicai21/Empathic-AI-Research/internal/store"
)

// Recorder writes the durable transcript.
type Recorder struct {
	store store.Store
}

// New creates a recorder backed by the persistence store.
func New(st store.Store) *Recorder {
	return &Recorder{store: st}
}

// Exchange stores one user message and one bot reply. When crisisKeyword is
// non-empty the user message is marked and a crisis flag is filed against it,
// so crisis exchanges stay in the durable record even though the orchestrator
// keeps them out of the prompt history.
func (r *Recorder) Exchange(ctx context.Context, participantID, userMessage, botReply, crisisKeyword string) {
	nextNum := 1
	if participant, err := r.store.GetParticipant(ctx, participantID); err == nil {
		nextNum = participant.TotalMessages + 1
	} else {
		log.Printf("[record] participant lookup failed for %s: %v", participantID, err)
	}

	userMsg, err := r.store.AppendMessage(ctx, study.Message{
		ParticipantID: participantID,
		MessageNum:    nextNum,
		Sender:        study.RoleUser,
		Content:       userMessage,
		CrisisKeyword: crisisKeyword != "",
	})
	if err != nil {
		log.Printf("[record] failed to save user message for %s: %v", participantID, err)
	}

	if _, err := r.store.AppendMessage(ctx, study.Message{
		ParticipantID: participantID,
		MessageNum:    nextNum + 1,
		Sender:        study.RoleAssistant,
		Content:       botReply,
	}); err != nil {
		log.Printf("[record] failed to save bot message for %s: %v", participantID, err)
	}

	if crisisKeyword != "" {
		if _, err := r.store.CreateCrisisFlag(ctx, study.CrisisFlag{
			ParticipantID: participantID,
			MessageID:     userMsg.ID,
			Keyword:       crisisKeyword,
			FlagType:      study.FlagAutomatic,
		}); err != nil {
			log.Printf("[record] failed to save crisis flag for %s: %v", participantID, err)
		}
	}
}
