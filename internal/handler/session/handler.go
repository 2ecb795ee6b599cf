package session

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/empathicai21/Empathic-AI-Research/internal/service/bot"
	"github.com/empathicai21/Empathic-AI-Research/internal/store"
	"github.com/empathicai21/Empathic-AI-Research/pkg/utils"
)

// Handler exposes session lifecycle endpoints.
type Handler struct {
	manager *bot.Manager
	store   store.Store
}

// New creates the session handler.
func New(manager *bot.Manager, st store.Store) *Handler {
	return &Handler{manager: manager, store: st}
}

// RegisterRoutes registers session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Delete("/session/{sessionID}", h.handleEndSession)
	r.Post("/session/{sessionID}/feedback", h.handleFeedback)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Style      string `json:"style"`
		ProlificID string `json:"prolificId"`
	}

	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	info, err := h.manager.CreateSession(r.Context(), payload.Style, payload.ProlificID)
	if err != nil {
		if errors.Is(err, bot.ErrInvalidStyle) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, info)
}

func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if info, ok := h.manager.Session(sessionID); ok {
		if err := h.store.CompleteParticipant(r.Context(), info.ParticipantID); err != nil {
			log.Printf("[session] failed to complete participant %s: %v", info.ParticipantID, err)
		}
	}

	// Ending an unknown or already ended session is a no-op.
	h.manager.EndSession(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Text   string `json:"text"`
		Rating int    `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	info, ok := h.manager.Session(sessionID)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	if err := h.store.SaveFeedback(r.Context(), info.ParticipantID, payload.Text, payload.Rating); err != nil {
		if errors.Is(err, store.ErrParticipantNotFound) {
			utils.RespondError(w, http.StatusNotFound, "participant not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to save feedback")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
