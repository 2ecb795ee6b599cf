package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/empathicai21/Empathic-AI-Research/internal/handler/record"
	"github.com/empathicai21/Empathic-AI-Research/internal/service/bot"
	"github.com/empathicai21/Empathic-AI-Research/pkg/utils"
)

// Handler exposes the non-streamed turn endpoint.
type Handler struct {
	manager  *bot.Manager
	recorder *record.Recorder
	maxTurns int
}

// New creates the chat handler.
func New(manager *bot.Manager, recorder *record.Recorder, maxTurns int) *Handler {
	return &Handler{
		manager:  manager,
		recorder: recorder,
		maxTurns: maxTurns,
	}
}

// RegisterRoutes registers chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/respond", h.handleRespond)
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID  string `json:"sessionId"`
		Message    string `json:"message"`
		MessageNum int    `json:"messageNum"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.SessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if payload.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	history, ok := h.manager.History(payload.SessionID)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	if len(history)/2 >= h.maxTurns {
		utils.RespondError(w, http.StatusConflict, "conversation complete")
		return
	}

	reply, err := h.manager.Respond(r.Context(), payload.SessionID, payload.Message, payload.MessageNum)
	if err != nil {
		if errors.Is(err, bot.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to generate response")
		return
	}

	if info, ok := h.manager.Session(payload.SessionID); ok {
		h.recorder.Exchange(r.Context(), info.ParticipantID, payload.Message, reply.BotResponse, reply.DetectedKeyword)
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}
