// Package server exposes the scanning session over HTTP. Scans run in the
// background with progress streamed over a websocket; everything else is
// plain request/response JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/pagelens/pagelens/internal/app"
	"github.com/pagelens/pagelens/internal/assets"
	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/model"
)

// Config holds the HTTP listener settings.
type Config struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		AllowedOrigins: []string{"*"},
	}
}

// Server routes HTTP traffic to one scanning session.
type Server struct {
	cfg      Config
	session  *app.Session
	hub      *hub
	upgrader websocket.Upgrader
	http     *http.Server
	logger   logging.Logger
}

func New(cfg Config, session *app.Session, logger logging.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	componentLogger := logger.With(logging.Field{Key: "component", Value: "server"})

	s := &Server{
		cfg:     cfg,
		session: session,
		hub:     newHub(componentLogger),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: componentLogger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/scan", s.handleScan)
		r.Post("/scan/stop", s.handleStopScan)
		r.Get("/ws/scan", s.handleScanSocket)
		r.Post("/chat", s.handleChat)
		r.Get("/chat/history", s.handleChatHistory)
		r.Get("/assets", s.handleAssets)
		r.Patch("/assets", s.handleAssetUpdate)
		r.Get("/export", s.handleExport)
	})

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", logging.Field{Key: "addr", Value: s.cfg.Addr})
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.closeAll()
	return s.http.Shutdown(ctx)
}

type scanRequest struct {
	URLs []string `json:"urls"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "urls is required")
		return
	}

	go func() {
		results := s.session.StartScan(context.Background(), req.URLs, func(url, stage string, percent int) {
			s.hub.broadcast(ProgressEvent{Type: "progress", URL: url, Stage: stage, Percent: percent})
		})
		for _, result := range results {
			event := ProgressEvent{Type: "done", URL: result.URL, Percent: 100}
			if result.Status == model.ScanFailed {
				event.Type = "failed"
				event.Error = result.Error
			}
			s.hub.broadcast(event)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{"accepted": req.URLs})
}

func (s *Server) handleStopScan(w http.ResponseWriter, _ *http.Request) {
	s.session.StopScan()
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopping"})
}

func (s *Server) handleScanSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed",
			logging.Field{Key: "error", Value: err.Error()})
		return
	}
	s.hub.add(conn)

	// Reads only serve to notice the peer going away.
	go func() {
		defer s.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	messages, err := s.session.HandleMessage(r.Context(), req.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"messages": s.session.History()})
}

func (s *Server) handleAssets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"assets": s.session.Assets()})
}

type assetUpdateRequest struct {
	URL      string            `json:"url"`
	Status   model.AssetStatus `json:"status"`
	Size     int64             `json:"size,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (s *Server) handleAssetUpdate(w http.ResponseWriter, r *http.Request) {
	var req assetUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" || req.Status == "" {
		writeError(w, http.StatusBadRequest, "url and status are required")
		return
	}

	err := s.session.UpdateAssetStatus(req.URL, req.Status, req.Size, req.Metadata)
	if errors.Is(err, assets.ErrAssetNotFound) {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
