package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/empathicai21/Empathic-AI-Research/internal/handler/record"
	"github.com/empathicai21/Empathic-AI-Research/internal/service/bot"
	"github.com/empathicai21/Empathic-AI-Research/pkg/utils"
)

// Handler manages streamed turns via Server-Sent Events.
type Handler struct {
	manager  *bot.Manager
	recorder *record.Recorder
	maxTurns int
}

// New creates a new stream handler.
func New(manager *bot.Manager, recorder *record.Recorder, maxTurns int) *Handler {
	return &Handler{
		manager:  manager,
		recorder: recorder,
		maxTurns: maxTurns,
	}
}

// StreamResponse represents a streaming response chunk.
type StreamResponse struct {
	Event           string `json:"event"`
	Content         string `json:"content,omitempty"`
	SessionID       string `json:"sessionId,omitempty"`
	CrisisDetected  bool   `json:"crisisDetected,omitempty"`
	DetectedKeyword string `json:"detectedKeyword,omitempty"`
	Finished        bool   `json:"finished,omitempty"`
	Error           string `json:"error,omitempty"`
}

// HandleStreamRequest runs one streamed turn over SSE. The crisis check runs
// before any provider call; a crisis message short-circuits to the fixed
// safety text as a single event.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	info, ok := h.manager.Session(sessionID)
	if !ok {
		h.sendSSEError(w, flusher, "session not found")
		return bot.ErrSessionNotFound
	}

	history, _ := h.manager.History(sessionID)
	if len(history)/2 >= h.maxTurns {
		h.sendSSEError(w, flusher, "conversation complete")
		return nil
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
	})

	isCrisis, keyword, crisisText, err := h.manager.CheckCrisis(userMessage)
	if err != nil {
		h.sendSSEError(w, flusher, "crisis check failed")
		return err
	}
	if isCrisis {
		h.sendSSE(w, flusher, StreamResponse{
			Event:           "message",
			SessionID:       sessionID,
			Content:         crisisText,
			CrisisDetected:  true,
			DetectedKeyword: keyword,
		})
		h.recorder.Exchange(ctx, info.ParticipantID, userMessage, crisisText, keyword)
		h.sendSSE(w, flusher, StreamResponse{Event: "end", SessionID: sessionID, Finished: true})
		log.Printf("[stream] crisis short-circuit for session=%s keyword=%q", sessionID, keyword)
		return nil
	}

	stream, err := h.manager.StreamRespond(ctx, sessionID, userMessage)
	if err != nil {
		h.sendSSEError(w, flusher, fmt.Sprintf("AI generation failed: %v", err))
		return err
	}
	defer stream.Close()

	for {
		fragment, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			h.sendSSEError(w, flusher, fmt.Sprintf("AI generation failed: %v", recvErr))
			return recvErr
		}
		if fragment != "" {
			h.sendSSE(w, flusher, StreamResponse{
				Event:     "delta",
				SessionID: sessionID,
				Content:   fragment,
			})
		}
	}

	final, _ := stream.Final()
	h.sendSSE(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   final,
	})

	h.recorder.Exchange(ctx, info.ParticipantID, userMessage, final, "")

	h.sendSSE(w, flusher, StreamResponse{Event: "end", SessionID: sessionID, Finished: true})

	log.Printf("[stream] completed response for session=%s", sessionID)
	return nil
}

// sendSSE sends a Server-Sent Event.
func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

// sendSSEError sends an error via Server-Sent Events.
func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, errorMsg string) {
	h.sendSSE(w, flusher, StreamResponse{
		Event: "error",
		Error: errorMsg,
	})
}
