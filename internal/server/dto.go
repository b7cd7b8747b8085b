package server

import (
	"encoding/json"
	"math"

	"github.com/IlikeChooros/go-uttt/pkg/render"
	"github.com/IlikeChooros/go-uttt/pkg/session"
	"github.com/IlikeChooros/go-uttt/pkg/uttt"
)

type moveRequest struct {
	Keypad string `json:"keypad,omitempty"`
	Move   string `json:"move,omitempty"` // A3a3 notation
	Board  *int   `json:"board,omitempty"`
	Cell   *int   `json:"cell,omitempty"`
}

type analysisDTO struct {
	Move       string   `json:"move"`
	Keypad     string   `json:"keypad"`
	Visits     int64    `json:"visits"`
	Eval       float64  `json:"eval"`
	EvalAfter  *float64 `json:"eval_after,omitempty"`
	Cycles     int      `json:"cycles"`
	Pv         []string `json:"pv"`
	StopReason string   `json:"stop_reason"`
}

type stateResponse struct {
	ID         string       `json:"id"`
	Position   string       `json:"position"`
	Board      [9][9]int    `json:"board"`
	Meta       [9]int       `json:"meta"`
	Forced     int          `json:"forced"`
	Mover      string       `json:"mover"`
	Status     string       `json:"status"`
	Winner     int          `json:"winner"`
	LegalMoves []string     `json:"legal_moves"`
	History    []string     `json:"history"`
	Emoji      string       `json:"emoji"`
	Analysis   *analysisDTO `json:"analysis,omitempty"`
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func moveStrings(moves []uttt.Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	return out
}

func toStateResponse(id string, c *session.Controller) stateResponse {
	s := c.State()
	resp := stateResponse{
		ID:         id,
		Position:   s.Notation(),
		Forced:     -1,
		Mover:      s.Mover().String(),
		Status:     s.Outcome().String(),
		Winner:     int(s.Outcome().Winner()),
		LegalMoves: moveStrings(s.LegalMoves()),
		History:    moveStrings(c.History()),
		Emoji:      render.Emoji(s),
	}

	for b := 0; b < 9; b++ {
		for i := 0; i < 9; i++ {
			resp.Board[b][i] = int(s.Cell(b, i))
		}
		resp.Meta[b] = int(s.Meta()[b])
	}
	if forced, ok := s.Forced(); ok {
		resp.Forced = forced
	}
	return resp
}

func toAnalysisDTO(a session.Analysis) *analysisDTO {
	dto := &analysisDTO{
		Move:       a.Move.String(),
		Keypad:     session.KeypadString(a.Move),
		Visits:     a.Visits,
		Eval:       a.Eval,
		Cycles:     a.Cycles,
		Pv:         moveStrings(a.Pv),
		StopReason: a.StopReason.String(),
	}
	if !math.IsNaN(a.EvalAfter) {
		after := a.EvalAfter
		dto.EvalAfter = &after
	}
	return dto
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
