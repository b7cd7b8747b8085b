package server

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/IlikeChooros/go-uttt/internal/config"
	"github.com/IlikeChooros/go-uttt/pkg/record"
	"github.com/IlikeChooros/go-uttt/pkg/session"
)

const (
	_engineName      = "mcts"
	_shutdownTimeout = 5 * time.Second
)

// One game played over HTTP, all access goes through mu
type gameSession struct {
	mu       sync.Mutex
	id       string
	ctrl     *session.Controller
	game     *record.Game
	hub      *hub
	analysis *analysisDTO // last engine turn
}

func (gs *gameSession) state() stateResponse {
	resp := toStateResponse(gs.id, gs.ctrl)
	resp.Analysis = gs.analysis
	return resp
}

func (gs *gameSession) broadcast() {
	gs.hub.publish(wsMessage{Type: "state", Payload: mustMarshal(gs.state())})
}

// Server hosts game sessions, each with its own engine and search tree
type Server struct {
	cfg      config.Config
	logger   zerolog.Logger
	recorder *record.Writer
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*gameSession
}

func New(cfg config.Config, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		sessions: make(map[string]*gameSession),
	}
	if cfg.RecordDir != "" {
		s.recorder = record.NewWriter(filepath.Join(cfg.RecordDir, "sessions.parquet"))
	}
	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/moves", s.handleMove)
			r.Post("/ai", s.handleEngineMove)
			r.Post("/reset", s.handleReset)
			r.Get("/ws", s.handleWS)
		})
	})
	return r
}

// Serve on the configured address until ctx is done, then shut down gracefully
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	s.logger.Info().Str("addr", s.cfg.Addr).Msg("listening")
	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info().Err(ctx.Err()).Msg("shutdown signal received")
	case err, ok := <-serverErrCh:
		if ok {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), _shutdownTimeout)
	defer cancel()
	s.Close()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error().Err(err).Msg("graceful shutdown failed")
		if closeErr := server.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
			s.logger.Error().Err(closeErr).Msg("forced close failed")
		}
	}
	return runErr
}

// Disconnect all websocket clients and flush the recorded games
func (s *Server) Close() {
	s.mu.Lock()
	for _, gs := range s.sessions {
		gs.hub.close()
	}
	s.mu.Unlock()
	s.flushRecords()
}

func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) newSession() *gameSession {
	id := uuid.NewString()
	logger := s.logger.With().Str("session", id).Logger()
	gs := &gameSession{
		id:   id,
		ctrl: session.NewController(logger, s.cfg.EngineOptions(logger)...),
		game: record.NewGame(),
		hub:  newHub(),
	}

	s.mu.Lock()
	s.sessions[id] = gs
	s.mu.Unlock()
	return gs
}

func (s *Server) lookup(id string) (*gameSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gs, ok := s.sessions[id]
	return gs, ok
}

func (s *Server) remove(id string) (*gameSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.sessions[id]
	delete(s.sessions, id)
	return gs, ok
}

// Store the finished game of gs, called with gs.mu held
func (s *Server) recordFinished(gs *gameSession) {
	outcome := gs.ctrl.IsTerminal()
	if s.recorder == nil || !outcome.Terminal() || gs.game.Len() == 0 {
		return
	}

	s.recorder.Append(gs.game.Finish(outcome)...)
	s.logger.Info().
		Str("session", gs.id).
		Str("game", gs.game.ID()).
		Stringer("outcome", outcome).
		Msg("game recorded")
	gs.game = record.NewGame()
	s.flushRecords()
}

func (s *Server) flushRecords() {
	if s.recorder == nil || s.recorder.Len() == 0 {
		return
	}
	if err := s.recorder.Flush(); err != nil {
		s.logger.Error().Err(err).Str("path", s.recorder.Path()).Msg("flush records")
	}
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Dur("took", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
