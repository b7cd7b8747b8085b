package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/IlikeChooros/go-uttt/pkg/bench"
	"github.com/IlikeChooros/go-uttt/pkg/mcts"
)

var ErrInvalidConfig = errors.New("invalid config")

type PlayerConfig struct {
	Name        string  `json:"name"`
	MovetimeMs  int     `json:"movetime_ms"`
	Cycles      uint32  `json:"cycles"` // 0 means no cycle limit
	Exploration float64 `json:"exploration"`
	Seed        int64   `json:"seed"`
}

type ArenaConfig struct {
	Games   int          `json:"games"`
	Workers int          `json:"workers"`
	Output  string       `json:"output"` // parquet file, empty disables recording
	Player1 PlayerConfig `json:"player1"`
	Player2 PlayerConfig `json:"player2"`
}

type Config struct {
	MovetimeMs  int         `json:"movetime_ms"`
	Cycles      uint32      `json:"cycles"`
	Exploration float64     `json:"exploration"`
	Seed        int64       `json:"seed"` // 0 seeds from the clock
	Addr        string      `json:"addr"`
	LogLevel    string      `json:"log_level"`
	RecordDir   string      `json:"record_dir"`
	Arena       ArenaConfig `json:"arena"`
}

func Default() Config {
	return Config{
		MovetimeMs:  mcts.DefaultMovetime,
		Exploration: mcts.ExplorationParam,
		Addr:        ":8080",
		LogLevel:    "info",
		Arena: ArenaConfig{
			Games:   20,
			Workers: 2,
			Output:  "data/arena.parquet",
			Player1: PlayerConfig{Name: "c=1.03", MovetimeMs: 200, Exploration: mcts.ExplorationParam},
			Player2: PlayerConfig{Name: "c=1.41", MovetimeMs: 200, Exploration: 1.41421356},
		},
	}
}

// Read a JSON config file, missing fields keep their default values
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := Decode(f, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func Decode(r io.Reader, cfg *Config) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg.Validate()
}

func (c Config) Validate() error {
	if c.Exploration < 0 {
		return fmt.Errorf("%w: exploration %v < 0", ErrInvalidConfig, c.Exploration)
	}
	if c.MovetimeMs < 0 && c.Cycles == 0 {
		return fmt.Errorf("%w: the engine needs a movetime or a cycle limit", ErrInvalidConfig)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.Arena.Games < 0 || c.Arena.Workers < 0 {
		return fmt.Errorf("%w: arena games and workers must not be negative", ErrInvalidConfig)
	}
	return nil
}

func limits(movetimeMs int, cycles uint32) *mcts.Limits {
	l := mcts.InfiniteLimits().SetMovetime(movetimeMs)
	if cycles > 0 {
		l.SetCycles(cycles)
	}
	return l
}

// Search limits of the engine, the movetime is negative when only cycles bound it
func (c Config) Limits() *mcts.Limits {
	return limits(c.MovetimeMs, c.Cycles)
}

// Engine options for a session controller
func (c Config) EngineOptions(logger zerolog.Logger) []mcts.Option {
	opts := []mcts.Option{
		mcts.WithLimits(c.Limits()),
		mcts.WithExplorationParam(c.Exploration),
		mcts.WithLogger(logger),
	}
	if c.Seed != 0 {
		opts = append(opts, mcts.WithSeed(c.Seed))
	}
	return opts
}

func (p PlayerConfig) Bench() bench.PlayerConfig {
	return bench.PlayerConfig{
		Name:        p.Name,
		Limits:      limits(p.MovetimeMs, p.Cycles),
		Exploration: p.Exploration,
		Seed:        p.Seed,
	}
}

// Console logger writing to w with the configured level
func (c Config) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

// Bind the flags to cfg, the current values become the flag defaults
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.MovetimeMs, "movetime", c.MovetimeMs, "engine thinking time per move in milliseconds, negative disables it")
	fs.Func("cycles", "engine iteration limit per move, 0 disables it", func(s string) error {
		var v uint32
		if _, err := fmt.Sscan(s, &v); err != nil {
			return err
		}
		c.Cycles = v
		return nil
	})
	fs.Float64Var(&c.Exploration, "exploration", c.Exploration, "UCB1 exploration constant")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "random seed, 0 seeds from the clock")
	fs.StringVar(&c.Addr, "addr", c.Addr, "server listen address")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&c.RecordDir, "record-dir", c.RecordDir, "directory for finished game records, empty disables them")
	fs.IntVar(&c.Arena.Games, "games", c.Arena.Games, "arena: number of games")
	fs.IntVar(&c.Arena.Workers, "workers", c.Arena.Workers, "arena: number of parallel games")
	fs.StringVar(&c.Arena.Output, "out", c.Arena.Output, "arena: parquet output file, empty disables it")
}

// Build the config from the command line: defaults, then the file given with
// -config, then the remaining flags.
func Parse(name string, args []string) (Config, error) {
	// first pass only looks for the config path
	var path string
	first := Default()
	pre := flag.NewFlagSet(name, flag.ContinueOnError)
	pre.SetOutput(io.Discard)
	pre.StringVar(&path, "config", "", "")
	first.RegisterFlags(pre)
	if err := pre.Parse(args); err != nil && !errors.Is(err, flag.ErrHelp) {
		return first, err
	}

	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return cfg, err
		}
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.String("config", path, "JSON config file")
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c Config) String() string {
	b := strings.Builder{}
	enc := json.NewEncoder(&b)
	enc.SetIndent("", "  ")
	_ = enc.Encode(c)
	return strings.TrimSpace(b.String())
}
