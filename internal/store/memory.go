package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/empathicai21/Empathic-AI-Research/internal/model/study"
)

// MemoryStore implements Store with mutex-guarded maps, suitable for pilots
// and tests. Enrollment order is preserved for the rotation count.
type MemoryStore struct {
	mu           sync.RWMutex
	participants map[string]study.Participant
	order        []string
	messages     map[string][]study.Message
	flags        []study.CrisisFlag
}

// NewMemoryStore bootstraps the in-memory persistence store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		participants: make(map[string]study.Participant),
		messages:     make(map[string][]study.Message),
	}
}

// CountParticipants returns the number of enrolled participants.
func (s *MemoryStore) CountParticipants(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order), nil
}

// CreateParticipant records a new enrollment.
func (s *MemoryStore) CreateParticipant(_ context.Context, participant study.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if participant.StartTime.IsZero() {
		participant.StartTime = time.Now().UTC()
	}
	if _, exists := s.participants[participant.ID]; !exists {
		s.order = append(s.order, participant.ID)
	}
	s.participants[participant.ID] = participant
	return nil
}

// GetParticipant retrieves a participant by id.
func (s *MemoryStore) GetParticipant(_ context.Context, id string) (study.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	participant, ok := s.participants[id]
	if !ok {
		return study.Participant{}, ErrParticipantNotFound
	}
	return participant, nil
}

// FindParticipantByProlificID resolves a returning participant.
func (s *MemoryStore) FindParticipantByProlificID(_ context.Context, prolificID string) (study.Participant, error) {
	if prolificID == "" {
		return study.Participant{}, ErrParticipantNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if p := s.participants[id]; p.ProlificID == prolificID {
			return p, nil
		}
	}
	return study.Participant{}, ErrParticipantNotFound
}

// CompleteParticipant marks a participant's conversation as finished.
func (s *MemoryStore) CompleteParticipant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	participant, ok := s.participants[id]
	if !ok {
		return ErrParticipantNotFound
	}
	now := time.Now().UTC()
	participant.EndTime = &now
	participant.Completed = true
	s.participants[id] = participant
	return nil
}

// SaveFeedback records optional end-of-study feedback.
func (s *MemoryStore) SaveFeedback(_ context.Context, id, text string, rating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	participant, ok := s.participants[id]
	if !ok {
		return ErrParticipantNotFound
	}
	participant.FeedbackText = text
	participant.FeedbackRating = rating
	s.participants[id] = participant
	return nil
}

// AppendMessage stores one transcript message and updates participant counters.
func (s *MemoryStore) AppendMessage(_ context.Context, message study.Message) (study.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	participant, ok := s.participants[message.ParticipantID]
	if !ok {
		return study.Message{}, ErrParticipantNotFound
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	s.messages[message.ParticipantID] = append(s.messages[message.ParticipantID], message)

	participant.TotalMessages++
	if message.CrisisKeyword {
		participant.CrisisFlagged = true
	}
	s.participants[message.ParticipantID] = participant

	return message, nil
}

// ListMessages returns stored messages for a participant in append order.
func (s *MemoryStore) ListMessages(_ context.Context, participantID string) ([]study.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[participantID]
	if !ok {
		if _, exists := s.participants[participantID]; !exists {
			return nil, ErrParticipantNotFound
		}
		return nil, nil
	}
	copied := make([]study.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// CreateCrisisFlag records a crisis detection for researcher review.
func (s *MemoryStore) CreateCrisisFlag(_ context.Context, flag study.CrisisFlag) (study.CrisisFlag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flag.ID = uuid.NewString()
	if flag.FlagType == "" {
		flag.FlagType = study.FlagAutomatic
	}
	if flag.CreatedAt.IsZero() {
		flag.CreatedAt = time.Now().UTC()
	}
	s.flags = append(s.flags, flag)

	if participant, ok := s.participants[flag.ParticipantID]; ok {
		participant.CrisisFlagged = true
		s.participants[flag.ParticipantID] = participant
	}
	return flag, nil
}

// ListCrisisFlags returns all recorded flags in detection order.
func (s *MemoryStore) ListCrisisFlags(_ context.Context) ([]study.CrisisFlag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make([]study.CrisisFlag, len(s.flags))
	copy(copied, s.flags)
	return copied, nil
}

// ReviewCrisisFlag marks a flag as reviewed with optional researcher notes.
func (s *MemoryStore) ReviewCrisisFlag(_ context.Context, id, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, flag := range s.flags {
		if flag.ID == id {
			flag.Reviewed = true
			flag.Notes = notes
			s.flags[i] = flag
			return nil
		}
	}
	return ErrFlagNotFound
}
