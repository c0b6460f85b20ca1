// Package ws implements the realtime chat relay: one websocket connection
// per chat session, authenticated at connect time, kept alive by an
// application-level heartbeat, and streaming AI responses through a
// tag-boundary-safe framer.
package ws

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/lumenchat/backend/internal/auth"
	"github.com/lumenchat/backend/internal/config"
	"github.com/lumenchat/backend/internal/service/ai"
	chatservice "github.com/lumenchat/backend/internal/service/chat"
)

// Close codes used by the relay in addition to the standard websocket set.
const (
	CloseGenericFailure  = 4000
	CloseAuthFailure     = 4001
	CloseTimeout         = 4002
	CloseSessionNotFound = 4004
)

// Handler upgrades chat websocket requests and hands them to a Connection.
type Handler struct {
	resolver  auth.Resolver
	store     chatservice.Store
	generator ai.Generator
	registry  *Registry
	cfg       config.WebSocketConfig
	upgrader  websocket.Upgrader
}

// NewHandler wires the websocket entry point. generator may be nil when no
// model is configured; chat requests then resolve to the fallback response.
func NewHandler(resolver auth.Resolver, store chatservice.Store, generator ai.Generator, cfg config.WebSocketConfig) *Handler {
	return &Handler{
		resolver:  resolver,
		store:     store,
		generator: generator,
		registry:  NewRegistry(),
		cfg:       cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Groups exposes the session group registry, mainly for tests and diagnostics.
func (h *Handler) Groups() *Registry {
	return h.registry
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionToken}", h.handleWebSocket)
}

// handleWebSocket upgrades the transport and runs the connection lifecycle
// to completion.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionToken := chi.URLParam(r, "sessionToken")
	if sessionToken == "" {
		http.Error(w, "session token is required", http.StatusBadRequest)
		return
	}

	credential := r.URL.Query().Get("token")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}

	c := newConnection(conn, h, sessionToken, credential)
	c.run(r.Context())
}
