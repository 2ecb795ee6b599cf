package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/empathicai21/Empathic-AI-Research/internal/model/study"
)

// Stream yields assistant text fragments for one turn. It is finite and not
// restartable. History is updated exactly once, when the stream completes or
// the early-stop heuristic ends it; an abandoned stream leaves the session's
// history untouched.
type Stream struct {
	manager     *Manager
	sessionID   string
	userMessage string
	inner       *schema.StreamReader[*schema.Message]

	parts    []string
	words    int
	exceeded bool
	stopped  bool
	finished bool

	// fallback carries the apologetic reply when the provider failed before
	// or during streaming; it is delivered as a single fragment.
	fallback string
}

// StreamRespond starts a streamed turn. It does NOT run crisis detection;
// callers must run CheckCrisis first and only stream non-crisis messages.
func (m *Manager) StreamRespond(ctx context.Context, sessionID, userMessage string) (*Stream, error) {
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
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	stream := &Stream{
		manager:     m,
		sessionID:   sessionID,
		userMessage: userMessage,
	}

	systemPrompt := m.assembler.SystemPrompt(styleID)
	inner, err := m.ai.Stream(ctx, systemPrompt, history, userMessage)
	if err != nil {
		log.Printf("[bot] provider stream failed session=%s: %v", sessionID, err)
		stream.fallback = apologyReply
		return stream, nil
	}
	stream.inner = inner
	return stream, nil
}

// Recv returns the next text fragment, or io.EOF once the stream is done.
// The terminating Recv finalizes the turn: the concatenated text is
// truncated to the word cap and one user plus one assistant turn are
// appended to the session history.
func (s *Stream) Recv() (string, error) {
	if s.finished {
		return "", io.EOF
	}

	if s.fallback != "" {
		fragment := s.fallback
		s.fallback = ""
		s.parts = append(s.parts, fragment)
		s.stopped = true
		return fragment, nil
	}

	if s.stopped {
		s.finalize()
		return "", io.EOF
	}

	for {
		chunk, err := s.inner.Recv()
		if errors.Is(err, io.EOF) {
			s.finalize()
			return "", io.EOF
		}
		if err != nil {
			log.Printf("[bot] stream recv failed session=%s: %v", s.sessionID, err)
			s.parts = s.parts[:0]
			s.parts = append(s.parts, apologyReply)
			s.stopped = true
			return apologyReply, nil
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}

		fragment := chunk.Content
		s.parts = append(s.parts, fragment)
		s.words = len(strings.Fields(strings.Join(s.parts, "")))
		if !s.exceeded && s.words >= s.manager.maxWords {
			s.exceeded = true
		}
		if s.exceeded {
			// Past the cap: stop at the first sentence-ending fragment, or
			// hard-stop once the text runs 25 words beyond the cap.
			if strings.ContainsAny(fragment, ".!?") || s.words >= s.manager.maxWords+25 {
				s.stopped = true
			}
		}
		return fragment, nil
	}
}

// Close releases the underlying provider stream. Closing before completion
// discards the partial text without touching session history.
func (s *Stream) Close() {
	if s.inner != nil {
		s.inner.Close()
	}
}

// Final returns the truncated full text once the stream has finished.
func (s *Stream) Final() (string, bool) {
	if !s.finished {
		return "", false
	}
	return s.finalText(), true
}

func (s *Stream) finalText() string {
	return truncateWords(strings.TrimSpace(strings.Join(s.parts, "")), s.manager.maxWords)
}

func (s *Stream) finalize() {
	if s.finished {
		return
	}
	s.finished = true
	if s.inner != nil {
		s.inner.Close()
	}
	s.manager.appendTurns(s.sessionID, s.userMessage, s.finalText())
}

// Collect drains the stream and returns the final truncated text, for
// callers that do not surface fragments incrementally.
func (s *Stream) Collect(ctx context.Context) (string, error) {
	defer s.Close()
	for {
		if _, err := s.Recv(); err != nil {
			if errors.Is(err, io.EOF) {
				final, _ := s.Final()
				return final, nil
			}
			return "", err
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
	}
}
