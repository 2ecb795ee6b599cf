// Package ws provides the interactive websocket transport: the participant
// sends text turns and receives incremental reply fragments as frames.
package ws

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/empathicai21/Empathic-AI-Research/internal/handler/record"
	"github.com/empathicai21/Empathic-AI-Research/internal/service/bot"
)

// Handler upgrades chat connections and relays streamed turns.
type Handler struct {
	manager  *bot.Manager
	recorder *record.Recorder
	maxTurns int
	upgrader websocket.Upgrader
}

// New creates the websocket handler.
func New(manager *bot.Manager, recorder *record.Recorder, maxTurns int) *Handler {
	return &Handler{
		manager:  manager,
		recorder: recorder,
		maxTurns: maxTurns,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the websocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type outgoingMessage struct {
	Type            string `json:"type"`
	SessionID       string `json:"sessionId,omitempty"`
	Content         string `json:"content,omitempty"`
	CrisisDetected  bool   `json:"crisisDetected,omitempty"`
	DetectedKeyword string `json:"detectedKeyword,omitempty"`
	Timestamp       int64  `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	info, ok := h.manager.Session(sessionID)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] new connection for session=%s participant=%s", sessionID, info.ParticipantID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go h.pingLoop(ctx, conn)

	h.send(conn, outgoingMessage{
		Type:      "connected",
		SessionID: sessionID,
		Content:   info.Style,
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[ws] read error: %v", err)
				}
				return
			}

			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			if msg.Type != "text" || msg.Message == "" {
				h.sendError(conn, "expected a text message")
				continue
			}

			h.handleTurn(ctx, conn, sessionID, info.ParticipantID, msg.Message)
		}
	}
}

// handleTurn runs one streamed exchange over the connection. The crisis check
// runs before the provider is touched.
func (h *Handler) handleTurn(ctx context.Context, conn *websocket.Conn, sessionID, participantID, userMessage string) {
	history, _ := h.manager.History(sessionID)
	if len(history)/2 >= h.maxTurns {
		h.sendError(conn, "conversation complete")
		return
	}

	isCrisis, keyword, crisisText, err := h.manager.CheckCrisis(userMessage)
	if err != nil {
		h.sendError(conn, "crisis check failed")
		return
	}
	if isCrisis {
		h.send(conn, outgoingMessage{
			Type:            "message",
			SessionID:       sessionID,
			Content:         crisisText,
			CrisisDetected:  true,
			DetectedKeyword: keyword,
		})
		h.recorder.Exchange(ctx, participantID, userMessage, crisisText, keyword)
		return
	}

	stream, err := h.manager.StreamRespond(ctx, sessionID, userMessage)
	if err != nil {
		h.sendError(conn, "failed to generate response")
		return
	}
	defer stream.Close()

	for {
		fragment, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			h.sendError(conn, "failed to generate response")
			return
		}
		if fragment != "" {
			h.send(conn, outgoingMessage{
				Type:      "delta",
				SessionID: sessionID,
				Content:   fragment,
			})
		}
	}

	final, _ := stream.Final()
	h.send(conn, outgoingMessage{
		Type:      "message",
		SessionID: sessionID,
		Content:   final,
	})
	h.recorder.Exchange(ctx, participantID, userMessage, final, "")
}

func (h *Handler) send(conn *websocket.Conn, msg outgoingMessage) {
	msg.Timestamp = time.Now().Unix()
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[ws] write failed: %v", err)
	}
}

func (h *Handler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, outgoingMessage{
		Type:    "error",
		Content: message,
	})
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
