package record

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/IlikeChooros/go-uttt/pkg/uttt"
)

const SchemaVersion = "uttt_move_v1"

// Row is a single played move of a finished game.
//
// Player is the mover (1 = x, -1 = o), Result the final outcome of the game
// (1, -1 or 0 for a draw). Visits and Eval describe the root search before
// the move, Eval is from the mover's perspective. Human moves have no search,
// so both are zero and Engine is empty.
type Row struct {
	GameID   string  `parquet:"game_id,dict"`
	Ply      int32   `parquet:"ply"`
	Player   int32   `parquet:"player"`
	Board    int32   `parquet:"board"`
	Cell     int32   `parquet:"cell"`
	Move     string  `parquet:"move,dict"`
	Position string  `parquet:"position"`
	Visits   int64   `parquet:"visits"`
	Eval     float32 `parquet:"eval"`
	Result   int32   `parquet:"result"`
	Engine   string  `parquet:"engine,dict,optional"`
}

// Game collects the rows of one game until its result is known
type Game struct {
	id   string
	rows []Row
}

func NewGame() *Game {
	return &Game{id: uuid.NewString(), rows: make([]Row, 0, 81)}
}

func (g *Game) ID() string {
	return g.id
}

// Add the move played in 'before', with the search statistics of the engine
// that chose it (zero values for a human move)
func (g *Game) Add(before uttt.State, move uttt.Move, engine string, visits int64, eval float64) {
	g.rows = append(g.rows, Row{
		GameID:   g.id,
		Ply:      int32(len(g.rows)),
		Player:   int32(before.Mover()),
		Board:    int32(move.BigIndex()),
		Cell:     int32(move.SmallIndex()),
		Move:     move.String(),
		Position: before.ApplyMove(move).Notation(),
		Visits:   visits,
		Eval:     float32(eval),
		Engine:   engine,
	})
}

func (g *Game) Len() int {
	return len(g.rows)
}

// Set the result on every row and return them
func (g *Game) Finish(outcome uttt.Outcome) []Row {
	for i := range g.rows {
		g.rows[i].Result = int32(outcome.Winner())
	}
	return g.rows
}

// Writer buffers rows of finished games and writes them to a single parquet
// file. Rows already in the file are kept: the first flush loads them into
// the buffer, so later writers append to earlier runs. Safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	path   string
	rows   []Row
	loaded bool
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Append(rows ...Row) {
	w.mu.Lock()
	w.rows = append(w.rows, rows...)
	w.mu.Unlock()
}

func (w *Writer) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.rows)
}

// Write all buffered rows together with the ones loaded from the file, which
// is replaced atomically
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.path == "" {
		return errors.New("record: empty output path")
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if !w.loaded {
		existing, err := readExisting(w.path)
		if err != nil {
			return err
		}
		w.rows = append(existing, w.rows...)
		w.loaded = true
	}

	tmpPath := w.path + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, w.rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", SchemaVersion),
	); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, w.path); err != nil {
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// Rows of a previous run, none if the file doesn't exist yet
func readExisting(path string) ([]Row, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("stat parquet: %w", err)
	}
	return ReadFile(path)
}

// Read every row of a record file
func ReadFile(path string) ([]Row, error) {
	rows, err := parquet.ReadFile[Row](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	return rows, nil
}
