package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tetris-evolve/internal/sim"
	"github.com/vovakirdan/tetris-evolve/internal/storage"
)

var flagSimTrace bool

var simulateCmd = &cobra.Command{
	Use:   "simulate [bot]",
	Short: "Play games with a bot and report scores",
	Long: `Play simulated games with a bot and print the result of each game and
the mean score, which is the fitness the evolver uses.

The bot defaults to "` + defaultBot + `". See 'tetrisbot bots' for the accepted forms.

Examples:
  tetrisbot simulate
  tetrisbot simulate best --games 20
  tetrisbot simulate run:3 --kill-lines 1000 --trace
  tetrisbot simulate 1,0,-20,-2 --seed 42`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&flagGames, "games", 0, "Number of games (default from config)")
	simulateCmd.Flags().IntVar(&flagKillLines, "kill-lines", 0, "Lines at which a game stops (default from config)")
	simulateCmd.Flags().BoolVar(&flagSimTrace, "trace", false, "Record the games as a Parquet trace")
}

// applySimulateFlags copies explicitly set flags over the configuration.
// Every game must stop at the kill line, so it cannot be turned off here.
func applySimulateFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("games") {
		if flagGames <= 0 {
			return sim.ErrNoGames
		}
		appConfig.Fitness.Games = flagGames
	}
	if flags.Changed("kill-lines") {
		if flagKillLines < 1 {
			return fmt.Errorf("--kill-lines must be at least 1, got %d", flagKillLines)
		}
		appConfig.Fitness.KillLines = flagKillLines
	}
	return appConfig.Validate()
}

func runSimulate(cmd *cobra.Command, args []string) error {
	var spec string
	if len(args) > 0 {
		spec = args[0]
	}
	name, b, err := resolveBot(spec)
	if err != nil {
		return err
	}

	if err := applySimulateFlags(cmd); err != nil {
		return err
	}
	games := appConfig.Fitness.Games
	cfg := simConfig()

	gameSeed := seed(0)
	simulator := sim.New(gameSeed, cfg)
	logger.Debug("simulating", "bot", name, "games", games, "seed", gameSeed, "kill_lines", cfg.KillLines)

	fmt.Printf("Bot %s, seed %d\n", name, gameSeed)
	fmt.Println()
	fmt.Printf("  %-4s  %-10s  %-6s  %-6s  %s\n", "Game", "Score", "Level", "Lines", "Moves")
	fmt.Printf("  %-4s  %-10s  %-6s  %-6s  %s\n", "----", "-----", "-----", "-----", "-----")

	var (
		rows  []storage.TraceRow
		total float64
	)
	for game := range games {
		moves := 0
		final := simulator.Play(b, func(m sim.Move) {
			moves++
			if flagSimTrace {
				rows = append(rows, storage.NewTraceRow(game, m))
			}
		})
		total += float64(final.Score)
		fmt.Printf("  %-4d  %-10d  %-6d  %-6d  %d\n", game+1, final.Score, final.Level, final.Lines, moves)
	}

	fmt.Println()
	fmt.Printf("Mean score: %.1f\n", total/float64(games))

	if flagSimTrace {
		path, err := storage.WriteTrace(appConfig.Storage.Traces, traceName(name), rows)
		if err != nil {
			return err
		}
		fmt.Printf("Trace: %s\n", path)
	}
	return nil
}
