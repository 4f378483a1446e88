// tetrisbot evolves falling-block bots with a genetic algorithm, plays
// games with them and serves their decisions over SSH and WebSocket.
//
// Usage:
//
//	tetrisbot evolve              - Evolve a bot and record the run
//	tetrisbot simulate [bot]      - Play games with a bot and report scores
//	tetrisbot serve               - Answer placement requests over SSH/WebSocket
//	tetrisbot watch [bot]         - Watch a bot play in the terminal
//	tetrisbot runs                - List evolution runs
//	tetrisbot trace [file]        - Inspect or replay a recorded game trace
//	tetrisbot bots                - List named bots
//
// Global flags:
//
//	--config <path>    - Config file (default search: ~/.tetrisbot, ./configs, built-in)
//	--seed <value>     - RNG seed (0 = from config, then time)
//	--db <path>        - Run database path
//	--log-level <lvl>  - debug, info, warn or error
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tetris-evolve/internal/config"
	"github.com/vovakirdan/tetris-evolve/internal/sim"
	"github.com/vovakirdan/tetris-evolve/internal/storage"
)

var (
	// Global flags
	flagConfig   string
	flagSeed     int64
	flagDBPath   string
	flagLogLevel string

	// Set up by the root command before any subcommand runs.
	appConfig config.Config
	logger    *log.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tetrisbot",
	Short: "tetrisbot - evolve and run falling-block bots",
	Long: `tetrisbot evolves weighted bots for a 10x20 falling-block game with a
genetic algorithm. Every candidate is scored by the average score of
simulated games, and the placement search considers every resting position
a piece can reach by single-step moves.

Available commands:
  evolve    - Evolve a bot and record the run
  simulate  - Play games with a bot and report scores
  serve     - Answer placement requests over SSH and WebSocket
  watch     - Watch a bot play in the terminal
  runs      - List evolution runs
  trace     - Inspect or replay a recorded game trace
  bots      - List named bots

Examples:
  tetrisbot evolve --population 36 --generations 20
  tetrisbot simulate best --games 10
  tetrisbot watch tuned
  tetrisbot serve --ssh :2222 --ws ""
  tetrisbot runs`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = from config, then time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to run database (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(evolveCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(botsCmd)
}

// setup loads the configuration and creates the logger.
func setup(_ *cobra.Command, _ []string) error {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "tetrisbot",
		Level:           level,
	})

	appConfig, err = config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagDBPath != "" {
		appConfig.Storage.DB = flagDBPath
	}
	return appConfig.Validate()
}

// seed returns the --seed flag, then fallback, then a time based seed.
func seed(fallback int64) int64 {
	switch {
	case flagSeed != 0:
		return flagSeed
	case fallback != 0:
		return fallback
	default:
		return time.Now().UnixNano()
	}
}

// simConfig returns the game settings from the fitness configuration.
func simConfig() sim.Config {
	return sim.Config{
		KillLines:  appConfig.Fitness.KillLines,
		StartLevel: appConfig.Fitness.StartLevel,
	}
}

// openStore opens the run database named by the configuration.
func openStore() (*storage.Store, error) {
	store, err := storage.Open(appConfig.Storage.DB)
	if err != nil {
		return nil, fmt.Errorf("opening run database: %w", err)
	}
	return store, nil
}
