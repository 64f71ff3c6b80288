package trace

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vislevel/internal/level"
)

// DefaultAddr is the default inspection server address.
const DefaultAddr = "127.0.0.1:9876"

// LevelSource provides point-in-time level state.
type LevelSource interface {
	Snapshot() []level.LevelState
}

// Server exposes registry state and recorded events over HTTP.
type Server struct {
	levels   LevelSource
	recorder *Recorder
	logger   *slog.Logger
	router   chi.Router
	server   *http.Server
	addr     string
}

// NewServer creates an inspection server. An empty addr uses DefaultAddr.
func NewServer(levels LevelSource, recorder *Recorder, logger *slog.Logger, addr string) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		levels:   levels,
		recorder: recorder,
		logger:   logger,
		addr:     addr,
	}

	s.router = chi.NewRouter()
	s.Register(s.router)
	s.server = &http.Server{Handler: s.router}
	return s
}

// Mount adds an extra handler, e.g. a metrics endpoint, before Start.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Handle(pattern, h)
}

// Register mounts the inspection endpoints on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/levels", s.handleLevels)
	r.Get("/levels/{name}", s.handleLevel)
	r.Get("/events", s.handleEvents)
}

// Handler returns the server's router.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins listening (non-blocking). Listen errors are returned; serve
// errors after that are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr().String()
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("inspection server failed", "addr", s.addr, "error", err)
		}
	}()
	s.logger.Info("inspection server listening", "addr", s.addr)
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr returns the listen address, resolved once started.
func (s *Server) Addr() string {
	return s.addr
}

// handleLevels handles GET /levels
func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.levels.Snapshot())
}

// handleLevel handles GET /levels/{name}
func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	for _, st := range s.levels.Snapshot() {
		if st.Name == name {
			writeJSON(w, http.StatusOK, st)
			return
		}
	}
	writeError(w, http.StatusNotFound, "level not found: "+name)
}

type eventsResponse struct {
	TraceID string  `json:"trace_id"`
	Total   uint64  `json:"total"`
	Events  []Entry `json:"events"`
}

// handleEvents handles GET /events?limit=N, newest first
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		writeError(w, http.StatusNotFound, "event recording is disabled")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, eventsResponse{
		TraceID: s.recorder.TraceID(),
		Total:   s.recorder.Total(),
		Events:  s.recorder.Recent(limit),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
