// Package bot orchestrates study sessions: condition assignment, the crisis
// short-circuit, prompt construction, provider calls (batch and streaming),
// and the soft length cap on replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/empathicai21/Empathic-AI-Research/internal/config"
	"github.com/empathicai21/Empathic-AI-Research/internal/model/study"
	"github.com/empathicai21/Empathic-AI-Research/internal/model/style"
	"github.com/empathicai21/Empathic-AI-Research/internal/service/ai"
	"github.com/empathicai21/Empathic-AI-Research/internal/service/assign"
	"github.com/empathicai21/Empathic-AI-Research/internal/store"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidStyle    = errors.New("invalid style")
)

// apologyReply is shown instead of propagating provider failures; the
// conversation must survive a failed turn.
const apologyReply = "I'm sorry, I ran into an error generating a response. Please try again."

// Detector is the crisis-detection collaborator. Check failures are subject
// to the manager's fail-open policy.
type Detector interface {
	Check(message string) (bool, string, error)
	CrisisResponse() string
}

// session is the in-memory conversation state for one participant.
type session struct {
	participantID string
	styleID       string
	watermark     string
	history       []study.Turn
}

// Manager owns the session map and ties the detector, assignment policy and
// provider together. Callers must keep at most one in-flight turn per
// session; the map itself is safe for concurrent use across sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session

	ai        *ai.Service
	assembler *ai.Assembler
	detector  Detector
	policy    *assign.Policy
	styles    style.Store
	store     store.Store

	maxWords         int
	detectorFailOpen bool
}

// NewManager wires the orchestrator. All collaborators are injected; the
// manager never reaches into the environment itself.
func NewManager(aiSvc *ai.Service, assembler *ai.Assembler, detector Detector, policy *assign.Policy, styles style.Store, st store.Store, studyCfg config.StudyConfig) *Manager {
	return &Manager{
		sessions:         make(map[string]*session),
		ai:               aiSvc,
		assembler:        assembler,
		detector:         detector,
		policy:           policy,
		styles:           styles,
		store:            st,
		maxWords:         studyCfg.MaxWords,
		detectorFailOpen: studyCfg.DetectorFailOpen,
	}
}

// SessionInfo is returned on session creation and lookup.
type SessionInfo struct {
	SessionID          string `json:"sessionId"`
	ParticipantID      string `json:"participantId"`
	Style              string `json:"style"`
	WatermarkCondition string `json:"watermarkCondition"`
	// Returning marks a participant re-admitted via prolific id; callers
	// should not enroll them again.
	Returning bool `json:"returning,omitempty"`
}

// Reply is the outcome of one non-streamed turn.
type Reply struct {
	BotResponse     string `json:"botResponse"`
	CrisisDetected  bool   `json:"crisisDetected"`
	DetectedKeyword string `json:"detectedKeyword,omitempty"`
}

// CreateSession provisions a session. styleOverride, when non-empty, must
// name a valid style; otherwise the assignment policy decides. The watermark
// condition is drawn independently per session.
func (m *Manager) CreateSession(ctx context.Context, styleOverride, prolificID string) (SessionInfo, error) {
	var (
		styleID   string
		returning *study.Participant
	)

	if styleOverride != "" {
		if _, ok := m.styles.FindByID(styleOverride); !ok {
			return SessionInfo{}, fmt.Errorf("%w: %q", ErrInvalidStyle, styleOverride)
		}
		styleID = styleOverride
	} else {
		styleID, returning = m.policy.ResolveStyle(ctx, prolificID)
	}

	info := SessionInfo{
		SessionID:          uuid.NewString(),
		Style:              styleID,
		WatermarkCondition: m.policy.FlipWatermark(),
	}
	if returning != nil {
		// Keep a reconnecting participant's experience consistent.
		info.ParticipantID = returning.ID
		info.WatermarkCondition = returning.WatermarkCondition
		info.Returning = true
	} else {
		info.ParticipantID = "P" + strings.ToUpper(uuid.NewString()[:8])
		// Enrollment advances the rotation counter; an unreachable store is
		// logged and degrades assignment, never blocks session creation.
		if err := m.store.CreateParticipant(ctx, study.Participant{
			ID:                 info.ParticipantID,
			Style:              info.Style,
			WatermarkCondition: info.WatermarkCondition,
			ProlificID:         prolificID,
		}); err != nil {
			log.Printf("[bot] failed to enroll participant %s: %v", info.ParticipantID, err)
		}
	}

	m.mu.Lock()
	m.sessions[info.SessionID] = &session{
		participantID: info.ParticipantID,
		styleID:       info.Style,
		watermark:     info.WatermarkCondition,
		history:       make([]study.Turn, 0, 16),
	}
	m.mu.Unlock()

	log.Printf("[bot] created session=%s participant=%s style=%s watermark=%s",
		info.SessionID, info.ParticipantID, info.Style, info.WatermarkCondition)
	return info, nil
}

// Session returns session metadata by id.
func (m *Manager) Session(sessionID string) (SessionInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return SessionInfo{}, false
	}
	return SessionInfo{
		SessionID:          sessionID,
		ParticipantID:      sess.participantID,
		Style:              sess.styleID,
		WatermarkCondition: sess.watermark,
	}, true
}

// History returns a copy of the session's in-memory turn history.
func (m *Manager) History(sessionID string) ([]study.Turn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	history := make([]study.Turn, len(sess.history))
	copy(history, sess.history)
	return history, true
}

// CheckCrisis runs the detector with the configured failure policy applied.
// A detector failure under fail-open counts as "no crisis detected".
func (m *Manager) CheckCrisis(userMessage string) (bool, string, string, error) {
	isCrisis, keyword, err := m.detector.Check(userMessage)
	if err != nil {
		if m.detectorFailOpen {
			log.Printf("[bot] crisis detector failed, continuing open: %v", err)
			return false, "", "", nil
		}
		return false, "", "", fmt.Errorf("crisis detector failed: %w", err)
	}
	if !isCrisis {
		return false, "", "", nil
	}
	return true, keyword, m.detector.CrisisResponse(), nil
}

// Respond runs one complete turn: crisis check, prompt assembly, model call,
// word-cap truncation, history append. On a crisis match the fixed safety
// text is returned without calling the model and without touching the
// session's prompt history; durable recording is the caller's job.
func (m *Manager) Respond(ctx context.Context, sessionID, userMessage string, messageNum int) (Reply, error) {
	m.mu.RLock()
	sess, ok := m.sessions[sessionID]
	var styleID string
	var history []study.Turn
	if ok {
		styleID = sess.styleID
		history = make([]study.Turn, len(sess.history))
		copy(history, sess.history)
	}
	m.mu.RUnlock()
	if !ok {
		return Reply{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	isCrisis, keyword, crisisText, err := m.CheckCrisis(userMessage)
	if err != nil {
		return Reply{}, err
	}
	if isCrisis {
		log.Printf("[bot] crisis short-circuit session=%s keyword=%q message=%d", sessionID, keyword, messageNum)
		return Reply{
			BotResponse:     crisisText,
			CrisisDetected:  true,
			DetectedKeyword: keyword,
		}, nil
	}

	systemPrompt := m.assembler.SystemPrompt(styleID)

	var reply string
	response, err := m.ai.Generate(ctx, sessionID, systemPrompt, history, userMessage)
	if err != nil {
		log.Printf("[bot] provider call failed session=%s: %v", sessionID, err)
		reply = apologyReply
	} else {
		reply = truncateWords(strings.TrimSpace(response.Content), m.maxWords)
	}

	m.appendTurns(sessionID, userMessage, reply)

	return Reply{BotResponse: reply}, nil
}

// EndSession drops in-memory session state. Ending an unknown or already
// ended session is a no-op.
func (m *Manager) EndSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; ok {
		delete(m.sessions, sessionID)
		log.Printf("[bot] ended session=%s", sessionID)
	}
}

// MaxWords returns the configured soft word cap.
func (m *Manager) MaxWords() int {
	return m.maxWords
}

// appendTurns records exactly one user and one assistant turn.
func (m *Manager) appendTurns(sessionID, userMessage, reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		// Session ended while the provider call was in flight; drop the turn.
		return
	}
	sess.history = append(sess.history,
		study.Turn{Role: study.RoleUser, Content: userMessage},
		study.Turn{Role: study.RoleAssistant, Content: reply},
	)
}

// truncateWords enforces the soft word cap, preferring a natural sentence
// ending over strict word-count precision. Within a limit+20 word window it
// cuts at the last sentence ending inside the base limit, else the first one
// inside the slack, else hard-cuts at exactly limit words.
func truncateWords(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}

	window := words
	if len(window) > limit+20 {
		window = window[:limit+20]
	}

	cut := -1
	for i, word := range window {
		if !strings.ContainsAny(word, ".!?") {
			continue
		}
		if i < limit {
			cut = i
			continue
		}
		if cut == -1 {
			cut = i
		}
		break
	}

	if cut >= 0 {
		return strings.TrimSpace(strings.Join(window[:cut+1], " "))
	}
	return strings.Join(words[:limit], " ")
}
