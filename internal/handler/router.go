package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/empathicai21/Empathic-AI-Research/internal/handler/admin"
	"github.com/empathicai21/Empathic-AI-Research/internal/handler/chat"
	"github.com/empathicai21/Empathic-AI-Research/internal/handler/record"
	sessionHandler "github.com/empathicai21/Empathic-AI-Research/internal/handler/session"
	"github.com/empathicai21/Empathic-AI-Research/internal/handler/stream"
	stylesHandler "github.com/empathicai21/Empathic-AI-Research/internal/handler/styles"
	"github.com/empathicai21/Empathic-AI-Research/internal/handler/ws"
	middlewarePkg "github.com/empathicai21/Empathic-AI-Research/internal/middleware"
	"github.com/empathicai21/Empathic-AI-Research/internal/model/style"
	"github.com/empathicai21/Empathic-AI-Research/internal/safety"
	"github.com/empathicai21/Empathic-AI-Research/internal/service/bot"
	"github.com/empathicai21/Empathic-AI-Research/internal/store"
	"github.com/empathicai21/Empathic-AI-Research/pkg/utils"
)

// NewRouter wires HTTP routes to the study services.
func NewRouter(manager *bot.Manager, st store.Store, styles style.Store, detector *safety.Detector, maxTurns int) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	recorder := record.New(st)

	sessionH := sessionHandler.New(manager, st)
	chatH := chat.New(manager, recorder, maxTurns)
	streamH := stream.New(manager, recorder, maxTurns)
	wsH := ws.New(manager, recorder, maxTurns)
	stylesH := stylesHandler.New(styles)
	adminH := admin.New(st, detector)

	r.Route("/api", func(api chi.Router) {
		stylesH.RegisterRoutes(api)
		sessionH.RegisterRoutes(api)
		chatH.RegisterRoutes(api)
		wsH.RegisterRoutes(api)

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamH.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})

		api.Route("/admin", adminH.RegisterRoutes)
	})

	return r
}
