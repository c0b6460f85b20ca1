package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lumenchat/backend/internal/auth"
	"github.com/lumenchat/backend/internal/config"
	chathandler "github.com/lumenchat/backend/internal/handler/chat"
	wshandler "github.com/lumenchat/backend/internal/handler/ws"
	middlewarePkg "github.com/lumenchat/backend/internal/middleware"
	"github.com/lumenchat/backend/internal/service/ai"
	chatservice "github.com/lumenchat/backend/internal/service/chat"
	"github.com/lumenchat/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(resolver auth.Resolver, store chatservice.Store, generator ai.Generator, wsCfg config.WebSocketConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	chatHandler := chathandler.New(store)
	r.Route("/api", func(api chi.Router) {
		api.Use(middlewarePkg.Authenticate(resolver))
		chatHandler.RegisterRoutes(api)
	})

	wsHandler := wshandler.NewHandler(resolver, store, generator, wsCfg)
	wsHandler.RegisterRoutes(r)

	return r
}
