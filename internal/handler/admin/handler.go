// Package admin exposes researcher endpoints: crisis flag review and
// adjustments to the monitored keyword set.
package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/empathicai21/Empathic-AI-Research/internal/safety"
	"github.com/empathicai21/Empathic-AI-Research/internal/store"
	"github.com/empathicai21/Empathic-AI-Research/pkg/utils"
)

// Handler serves the researcher-facing endpoints.
type Handler struct {
	store    store.Store
	detector *safety.Detector
}

// New creates the admin handler.
func New(st store.Store, detector *safety.Detector) *Handler {
	return &Handler{store: st, detector: detector}
}

// RegisterRoutes registers admin routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/crisis-flags", h.handleListFlags)
	r.Post("/crisis-flags/{flagID}/review", h.handleReviewFlag)
	r.Get("/crisis-keywords", h.handleListKeywords)
	r.Post("/crisis-keywords", h.handleAddKeyword)
	r.Delete("/crisis-keywords", h.handleRemoveKeyword)
}

func (h *Handler) handleListFlags(w http.ResponseWriter, r *http.Request) {
	flags, err := h.store.ListCrisisFlags(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to list crisis flags")
		return
	}
	utils.RespondJSON(w, http.StatusOK, flags)
}

func (h *Handler) handleReviewFlag(w http.ResponseWriter, r *http.Request) {
	flagID := chi.URLParam(r, "flagID")

	var payload struct {
		Notes string `json:"notes"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if err := h.store.ReviewCrisisFlag(r.Context(), flagID, payload.Notes); err != nil {
		if errors.Is(err, store.ErrFlagNotFound) {
			utils.RespondError(w, http.StatusNotFound, "crisis flag not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to review crisis flag")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "reviewed"})
}

func (h *Handler) handleListKeywords(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.detector.Keywords())
}

func (h *Handler) handleAddKeyword(w http.ResponseWriter, r *http.Request) {
	keyword, ok := decodeKeyword(w, r)
	if !ok {
		return
	}
	h.detector.AddKeyword(keyword)
	utils.RespondJSON(w, http.StatusOK, h.detector.Keywords())
}

func (h *Handler) handleRemoveKeyword(w http.ResponseWriter, r *http.Request) {
	keyword, ok := decodeKeyword(w, r)
	if !ok {
		return
	}
	h.detector.RemoveKeyword(keyword)
	utils.RespondJSON(w, http.StatusOK, h.detector.Keywords())
}

func decodeKeyword(w http.ResponseWriter, r *http.Request) (string, bool) {
	var payload struct {
		Keyword string `json:"keyword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Keyword == "" {
		utils.RespondError(w, http.StatusBadRequest, "keyword is required")
		return "", false
	}
	return payload.Keyword, true
}
