// Package server exposes the assistant over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dkaplan88/hireflow/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type ctxKey int

const sessionIDKey ctxKey = iota

// CommandHandler executes one command for a session and returns the response
// text.
type CommandHandler interface {
	HandleCommand(ctx context.Context, sessionID, command string) string
}

// Server is the HTTP surface of the service.
type Server struct {
	handler  CommandHandler
	hub      *Hub
	tokens   *TokenIssuer
	upgrader websocket.Upgrader
	logger   *zap.Logger
	cfg      config.ServerConfig

	httpServer *http.Server
}

// New assembles the server and its routes.
func New(cfg config.ServerConfig, handler CommandHandler, hub *Hub, tokens *TokenIssuer, logger *zap.Logger) *Server {
	s := &Server{
		handler: handler,
		hub:     hub,
		tokens:  tokens,
		logger:  logger.Named("server"),
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/session", s.handleCreateSession)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/api/command", s.handleCommand)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.cfg.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// authenticate resolves the bearer token to a session ID.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			// WebSocket clients cannot set headers from the browser.
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			s.writeError(w, http.StatusUnauthorized, "missing token")
			return
		}

		sessionID, err := s.tokens.Parse(token)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sessionID := uuid.NewString()
	token, err := s.tokens.Issue(sessionID)
	if err != nil {
		s.logger.Error("failed to issue token", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": sessionID,
		"token":      token,
	})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := r.Context().Value(sessionIDKey).(string)

	var req struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Command) == "" {
		s.writeError(w, http.StatusBadRequest, "a non-empty command is required")
		return
	}

	response := s.handler.HandleCommand(r.Context(), sessionID, req.Command)
	s.writeJSON(w, http.StatusOK, map[string]string{
		"session_id": sessionID,
		"response":   response,
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := r.Context().Value(sessionIDKey).(string)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	s.hub.Register(sessionID, conn)
	s.logger.Info("websocket subscriber connected", zap.String("session_id", sessionID))

	defer func() {
		s.hub.Unregister(sessionID, conn)
		conn.Close()
	}()

	// The request context dies with the handler; the connection outlives it.
	ctx := context.Background()

	// Inbound frames are commands. Responses reach the subscriber through
	// the hub, which the session's notifier already feeds; delivering them
	// here as well would duplicate every frame.
	for {
		var req struct {
			Command string `json:"command"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if strings.TrimSpace(req.Command) == "" {
			continue
		}
		s.handler.HandleCommand(ctx, sessionID, req.Command)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
