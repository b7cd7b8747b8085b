package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/IlikeChooros/go-uttt/internal/config"
	"github.com/IlikeChooros/go-uttt/pkg/record"
)

func testServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	cfg.MovetimeMs = -1
	cfg.Cycles = 40
	cfg.Seed = 7
	cfg.RecordDir = t.TempDir()

	srv := New(cfg, zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func call(t *testing.T, ts *httptest.Server, method, path string, body any) (int, stateResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var state stateResponse
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	}
	return resp.StatusCode, state
}

func TestPing(t *testing.T) {
	_, ts := testServer(t)

	resp, err := ts.Client().Get(ts.URL + "/api/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestSessionLifecycle(t *testing.T) {
	srv, ts := testServer(t)

	status, state := call(t, ts, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, state.ID)
	require.Equal(t, 1, srv.Len())
	require.Equal(t, -1, state.Forced)
	require.Equal(t, "x", state.Mover)
	require.Equal(t, "ongoing", state.Status)
	require.Len(t, state.LegalMoves, 81)
	require.Equal(t, "9/9/9/9/9/9/9/9/9 x -", state.Position)
	base := "/api/sessions/" + state.ID

	// top right cell of the top left board
	status, state = call(t, ts, http.MethodPost, base+"/moves", map[string]string{"keypad": "79"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []string{"A3c3"}, state.History)
	require.Equal(t, 2, state.Forced)
	require.Equal(t, "o", state.Mover)
	require.Equal(t, 1, state.Board[0][2])
	require.Len(t, state.LegalMoves, 9)
	require.Nil(t, state.Analysis)

	status, _ = call(t, ts, http.MethodPost, base+"/moves", map[string]int{"board": 0, "cell": 0})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	status, _ = call(t, ts, http.MethodPost, base+"/moves", map[string]string{"keypad": "0x"})
	require.Equal(t, http.StatusBadRequest, status)
	status, _ = call(t, ts, http.MethodPost, base+"/moves", map[string]string{})
	require.Equal(t, http.StatusBadRequest, status)
	status, _ = call(t, ts, http.MethodPost, base+"/moves", map[string]int{"board": 2, "cell": 9})
	require.Equal(t, http.StatusBadRequest, status)

	status, state = call(t, ts, http.MethodPost, base+"/moves", map[string]string{"move": "C3b2"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []string{"A3c3", "C3b2"}, state.History)
	require.Equal(t, 4, state.Forced)

	status, state = call(t, ts, http.MethodPost, base+"/ai", nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, state.History, 3)
	require.NotNil(t, state.Analysis)
	require.Equal(t, state.History[2], state.Analysis.Move)
	require.Len(t, state.Analysis.Keypad, 2)
	require.Positive(t, state.Analysis.Visits)
	require.NotEmpty(t, state.Analysis.Pv)
	require.InDelta(t, 0, state.Analysis.Eval, 1)

	status, state = call(t, ts, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, state.History, 3)
	require.NotNil(t, state.Analysis)

	status, state = call(t, ts, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, status)
	require.Empty(t, state.History)
	require.Len(t, state.LegalMoves, 81)

	status, _ = call(t, ts, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, status)
	require.Zero(t, srv.Len())

	status, _ = call(t, ts, http.MethodGet, base, nil)
	require.Equal(t, http.StatusNotFound, status)
	status, _ = call(t, ts, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestFinishedGameIsRecorded(t *testing.T) {
	srv, ts := testServer(t)

	_, state := call(t, ts, http.MethodPost, "/api/sessions", nil)
	base := "/api/sessions/" + state.ID

	for i := 0; i < 81 && state.Status == "ongoing"; i++ {
		var status int
		status, state = call(t, ts, http.MethodPost, base+"/ai", nil)
		require.Equal(t, http.StatusOK, status)
	}
	require.NotEqual(t, "ongoing", state.Status)
	require.Empty(t, state.LegalMoves)

	status, _ := call(t, ts, http.MethodPost, base+"/ai", nil)
	require.Equal(t, http.StatusConflict, status)
	status, _ = call(t, ts, http.MethodPost, base+"/moves", map[string]string{"keypad": "55"})
	require.Equal(t, http.StatusConflict, status)

	rows, err := record.ReadFile(filepath.Join(srv.cfg.RecordDir, "sessions.parquet"))
	require.NoError(t, err)
	require.Len(t, rows, len(state.History))
	for i, row := range rows {
		require.Equal(t, int32(i), row.Ply)
		require.Equal(t, state.History[i], row.Move)
		require.Equal(t, _engineName, row.Engine)
		require.Equal(t, int32(state.Winner), row.Result)
	}
}

func TestWebsocketStream(t *testing.T) {
	srv, ts := testServer(t)

	_, state := call(t, ts, http.MethodPost, "/api/sessions", nil)
	base := "/api/sessions/" + state.ID
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + base + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))

	readState := func() stateResponse {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, "state", msg.Type)
		var s stateResponse
		require.NoError(t, json.Unmarshal(msg.Payload, &s))
		return s
	}

	require.Equal(t, state.ID, readState().ID)
	gs, ok := srv.lookup(state.ID)
	require.True(t, ok)
	require.Equal(t, 1, gs.hub.size())

	status, _ := call(t, ts, http.MethodPost, base+"/moves", map[string]string{"keypad": "55"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []string{"B2b2"}, readState().History)

	require.NoError(t, conn.WriteJSON(wsMessage{Type: "state"}))
	require.Equal(t, 4, readState().Forced)

	status, _ = call(t, ts, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, status)
	_, _, err = conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestMoveRequestResolve(t *testing.T) {
	board, cell := 3, 7
	move, err := moveRequest{Board: &board, Cell: &cell}.resolve()
	require.NoError(t, err)
	require.Equal(t, 3, move.BigIndex())
	require.Equal(t, 7, move.SmallIndex())

	_, err = moveRequest{Move: "Z9z9"}.resolve()
	require.ErrorIs(t, err, errBadMove)
	_, err = moveRequest{Board: &board}.resolve()
	require.ErrorIs(t, err, errBadMove)
}
