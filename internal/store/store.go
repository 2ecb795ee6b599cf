// Package store is the persistence collaborator for the study: participants,
// transcript messages and crisis flags. The orchestrator treats every
// operation as fallible and degrades instead of failing user-facing turns.
package store

import (
	"context"
	"errors"

	"github.com/empathicai21/Empathic-AI-Research/internal/model/study"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrFlagNotFound        = errors.New("crisis flag not found")
)

// Store exposes the persistence operations the study core depends on.
type Store interface {
	// CountParticipants returns how many participants have been enrolled,
	// used by the sequential assignment rotation.
	CountParticipants(ctx context.Context) (int, error)
	CreateParticipant(ctx context.Context, participant study.Participant) error
	GetParticipant(ctx context.Context, id string) (study.Participant, error)
	// FindParticipantByProlificID resolves a returning participant by their
	// external correlation id.
	FindParticipantByProlificID(ctx context.Context, prolificID string) (study.Participant, error)
	CompleteParticipant(ctx context.Context, id string) error
	SaveFeedback(ctx context.Context, id, text string, rating int) error

	AppendMessage(ctx context.Context, message study.Message) (study.Message, error)
	ListMessages(ctx context.Context, participantID string) ([]study.Message, error)

	CreateCrisisFlag(ctx context.Context, flag study.CrisisFlag) (study.CrisisFlag, error)
	ListCrisisFlags(ctx context.Context) ([]study.CrisisFlag, error)
	ReviewCrisisFlag(ctx context.Context, id, notes string) error
}
