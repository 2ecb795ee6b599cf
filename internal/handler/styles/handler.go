package styles

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/empathicai21/Empathic-AI-Research/internal/model/style"
	"github.com/empathicai21/Empathic-AI-Research/pkg/utils"
)

// Handler exposes the configured empathy styles.
type Handler struct {
	styles style.Store
}

// New creates the styles handler.
func New(styles style.Store) *Handler {
	return &Handler{styles: styles}
}

// RegisterRoutes registers style routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/styles", h.handleListStyles)
}

func (h *Handler) handleListStyles(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.styles.List())
}
