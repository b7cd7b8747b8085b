package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/IlikeChooros/go-uttt/pkg/record"
	"github.com/IlikeChooros/go-uttt/pkg/session"
	"github.com/IlikeChooros/go-uttt/pkg/uttt"
)

var (
	errBadMove         = errors.New("bad move request")
	errSessionNotFound = errors.New("session not found")
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, errSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadMove), errors.Is(err, session.ErrInvalidKeypad):
		return http.StatusBadRequest
	case errors.Is(err, uttt.ErrIllegalMove):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrGameOver):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Move of the request, given as keypad digits, A3a3 notation or board and cell indices
func (req moveRequest) resolve() (uttt.Move, error) {
	switch {
	case req.Keypad != "":
		return session.ParseKeypad(req.Keypad)
	case req.Move != "":
		move := uttt.MoveFromString(req.Move)
		if !move.Valid() {
			return uttt.MoveIllegal, fmt.Errorf("%w: notation %q", errBadMove, req.Move)
		}
		return move, nil
	case req.Board != nil && req.Cell != nil:
		board, cell := *req.Board, *req.Cell
		if board < 0 || board > 8 || cell < 0 || cell > 8 {
			return uttt.MoveIllegal, fmt.Errorf("%w: board %d, cell %d out of range", errBadMove, board, cell)
		}
		return uttt.MakeMove(board, cell), nil
	}
	return uttt.MoveIllegal, fmt.Errorf("%w: no move given", errBadMove)
}

func (s *Server) sessionFromRequest(r *http.Request) (*gameSession, error) {
	id := chi.URLParam(r, "id")
	gs, ok := s.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errSessionNotFound, id)
	}
	return gs, nil
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	gs := s.newSession()
	s.logger.Info().Str("session", gs.id).Msg("session created")

	gs.mu.Lock()
	defer gs.mu.Unlock()
	writeJSON(w, http.StatusCreated, gs.state())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	gs, err := s.sessionFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()
	writeJSON(w, http.StatusOK, gs.state())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	gs, ok := s.remove(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, fmt.Errorf("%w: %s", errSessionNotFound, chi.URLParam(r, "id")))
		return
	}
	gs.hub.close()
	s.logger.Info().Str("session", gs.id).Msg("session deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	gs, err := s.sessionFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %w", errBadMove, err))
		return
	}
	move, err := req.resolve()
	if err != nil {
		writeError(w, err)
		return
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	before := gs.ctrl.State()
	if _, err := gs.ctrl.SubmitMove(move); err != nil {
		writeError(w, err)
		return
	}
	gs.game.Add(before, move, "", 0, 0)
	gs.analysis = nil
	s.recordFinished(gs)
	gs.broadcast()
	writeJSON(w, http.StatusOK, gs.state())
}

func (s *Server) handleEngineMove(w http.ResponseWriter, r *http.Request) {
	gs, err := s.sessionFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	before := gs.ctrl.State()
	analysis, err := gs.ctrl.PlayBestMove(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	gs.game.Add(before, analysis.Move, _engineName, analysis.Visits, analysis.Eval)
	gs.analysis = toAnalysisDTO(analysis)
	s.recordFinished(gs)
	gs.broadcast()
	writeJSON(w, http.StatusOK, gs.state())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	gs, err := s.sessionFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	gs.ctrl.Reset()
	gs.analysis = nil
	gs.game = record.NewGame()
	gs.broadcast()
	writeJSON(w, http.StatusOK, gs.state())
}

// Stream the session state, a client may ask for it again with {"type":"state"}
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	gs, err := s.sessionFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	c := &client{send: make(chan []byte, 16)}
	gs.mu.Lock()
	gs.hub.register(c)
	gs.hub.sendTo(c, wsMessage{Type: "state", Payload: mustMarshal(gs.state())})
	gs.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := writeWSWithHeartbeat(conn, c.send); err != nil {
			s.logger.Debug().Err(err).Str("session", gs.id).Msg("websocket write")
		}
	}()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug().Err(err).Str("session", gs.id).Msg("websocket read")
			}
			break
		}
		if msg.Type == "state" {
			gs.mu.Lock()
			gs.hub.sendTo(c, wsMessage{Type: "state", Payload: mustMarshal(gs.state())})
			gs.mu.Unlock()
		}
	}

	gs.hub.unregister(c)
	<-done
}
