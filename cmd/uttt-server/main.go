package main

/*

HTTP and websocket front end: every session is a game against its own engine.

	POST   /api/sessions              new game
	GET    /api/sessions/{id}         current state
	POST   /api/sessions/{id}/moves   {"keypad":"79"}, {"move":"A3c3"} or {"board":0,"cell":2}
	POST   /api/sessions/{id}/ai      engine plays for the side to move
	POST   /api/sessions/{id}/reset   back to the empty board
	DELETE /api/sessions/{id}         drop the session
	GET    /api/sessions/{id}/ws      state updates

*/

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/IlikeChooros/go-uttt/internal/config"
	"github.com/IlikeChooros/go-uttt/internal/server"
)

func main() {
	cfg, err := config.Parse("uttt-server", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := cfg.Logger(os.Stderr)
	logger.Debug().Msg("config:\n" + cfg.String())

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if err := server.New(cfg, logger).Run(sigCtx); err != nil {
		logger.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
	logger.Info().Msg("shutdown complete")
}
