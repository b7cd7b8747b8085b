package main

/*

Engine versus engine arena. Two engine configurations play each other over
several games in parallel, alternating colours at random, and every move
is written to a parquet file for later analysis.

Press q to stop early, the finished games are still written.

*/

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/IlikeChooros/go-uttt/internal/config"
	"github.com/IlikeChooros/go-uttt/pkg/bench"
	"github.com/IlikeChooros/go-uttt/pkg/record"
)

const _recentGames = 10

// Forwards arena events to the UI, dropping them if it can't keep up
type uiListener struct {
	bench.DefaultListener
	updates chan bench.VersusWorkerInfo
}

func (l uiListener) OnFinishedGame(info bench.VersusWorkerInfo) {
	select {
	case l.updates <- info:
	default:
	}
}

type doneMsg struct {
	summary bench.VersusSummaryInfo
	err     error
}

type TickMsg time.Time

type model struct {
	arena       *bench.VersusArena
	cancel      context.CancelFunc
	updates     chan bench.VersusWorkerInfo
	done        chan doneMsg
	startTime   time.Time
	gamesPlayed int
	recentGames []string
	result      *doneMsg
}

func initialModel(arena *bench.VersusArena, cancel context.CancelFunc, updates chan bench.VersusWorkerInfo, done chan doneMsg) model {
	return model{
		arena:     arena,
		cancel:    cancel,
		updates:   updates,
		done:      done,
		startTime: time.Now(),
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func waitForUpdate(updates chan bench.VersusWorkerInfo) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func waitForDone(done chan doneMsg) tea.Cmd {
	return func() tea.Msg {
		return <-done
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), waitForDone(m.done), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.cancel()
		}
	case TickMsg:
		return m, tickCmd()
	case bench.VersusWorkerInfo:
		m.gamesPlayed++
		logMsg := fmt.Sprintf("Worker %d: %s, moves %d, %s played x",
			msg.WorkerID, msg.Result, msg.GameMoveNum, xName(msg))
		m.recentGames = append([]string{logMsg}, m.recentGames...)
		if len(m.recentGames) > _recentGames {
			m.recentGames = m.recentGames[:_recentGames]
		}
		return m, waitForUpdate(m.updates)
	case doneMsg:
		m.result = &msg
		return m, tea.Quit
	}
	return m, nil
}

func xName(info bench.VersusWorkerInfo) string {
	if info.P1IsX {
		return info.P1Name
	}
	return info.P2Name
}

func (m model) View() string {
	duration := time.Since(m.startTime)
	gamesPerMin := 0.0
	if duration.Seconds() >= 1 {
		gamesPerMin = float64(m.gamesPlayed) / duration.Minutes()
	}

	b := strings.Builder{}
	fmt.Fprintf(&b, "%s vs %s\n\n", m.arena.Player1.Name, m.arena.Player2.Name)
	fmt.Fprintf(&b, "Games:      %d/%d\n", m.arena.Total(), m.arena.NGames)
	fmt.Fprintf(&b, "P1 wins:    %d\n", m.arena.P1Wins())
	fmt.Fprintf(&b, "P2 wins:    %d\n", m.arena.P2Wins())
	fmt.Fprintf(&b, "Draws:      %d\n", m.arena.Draws())
	fmt.Fprintf(&b, "Duration:   %s\n", duration.Round(time.Second))
	fmt.Fprintf(&b, "Games/min:  %.2f\n\n", gamesPerMin)

	b.WriteString("Recent Games:\n")
	for _, g := range m.recentGames {
		b.WriteString(g + "\n")
	}

	b.WriteString("\nPress q to quit.\n")
	return b.String()
}

func main() {
	cfg, err := config.Parse("uttt-arena", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// the UI owns the terminal, logs go to a temporary file
	logFile, err := os.CreateTemp("", "uttt-arena-*.log")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := cfg.Logger(logFile)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	arena := bench.NewVersusArena(cfg.Arena.Player1.Bench(), cfg.Arena.Player2.Bench()).
		Setup(cfg.Arena.Games, cfg.Arena.Workers).
		WithLogger(logger)

	var recorder *record.Writer
	if cfg.Arena.Output != "" {
		recorder = record.NewWriter(cfg.Arena.Output)
		arena.WithRecorder(recorder)
	}

	updates := make(chan bench.VersusWorkerInfo, 64)
	done := make(chan doneMsg, 1)
	listener := bench.NewArenaListener(
		bench.LogListener{Logger: logger},
		uiListener{updates: updates},
	)

	go func() {
		summary, err := arena.Run(ctx, listener)
		done <- doneMsg{summary: summary, err: err}
	}()

	p := tea.NewProgram(initialModel(arena, cancel, updates, done))
	final, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	cancel()

	var result *doneMsg
	if m, ok := final.(model); ok {
		result = m.result
	}
	if result == nil {
		// the UI stopped first, wait for the workers to finish their games
		msg := <-done
		result = &msg
	}

	s := result.summary
	fmt.Printf("%s: %d wins, %s: %d wins, %d draws (%d games)\n",
		s.P1Name, s.P1Wins, s.P2Name, s.P2Wins, s.Draws, s.TotalGames)
	fmt.Printf("First to move won %d, second to move won %d\n", s.FirstToMoveWins, s.SecondToMoveWins)
	if result.err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, result.err)
	}

	if recorder != nil {
		if err := recorder.Flush(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("%s holds %d moves, log in %s\n", recorder.Path(), recorder.Len(), logFile.Name())
	}
}
