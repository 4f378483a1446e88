package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tetris-evolve/internal/bot"
	"github.com/vovakirdan/tetris-evolve/internal/registry"
	"github.com/vovakirdan/tetris-evolve/internal/sim"
	"github.com/vovakirdan/tetris-evolve/internal/storage"
)

const defaultBot = "tuned"

var botsCmd = &cobra.Command{
	Use:   "bots",
	Short: "List named bots",
	Long: `Shows the named bots and the other ways to pick a bot.

Wherever a command takes a bot, it accepts:
  <name>     - a named bot from this list
  best       - the champion of the fittest completed run
  run:<id>   - the champion of a completed run
  a,b,c,d    - explicit weights for ` + strings.Join(bot.FeatureNames[:], ", "),
	Args: cobra.NoArgs,
	Run:  runBots,
}

func runBots(cmd *cobra.Command, args []string) {
	bots := registry.List()

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, b := range bots {
		if len(b.ID) > maxIDLen {
			maxIDLen = len(b.ID)
		}
	}

	fmt.Println("Named bots:")
	fmt.Println()
	fmt.Printf("  %-*s  %-28s  %s\n", maxIDLen, "ID", "Weights", "Title")
	fmt.Printf("  %-*s  %-28s  %s\n", maxIDLen, "--", "-------", "-----")
	for _, b := range bots {
		fmt.Printf("  %-*s  %-28s  %s\n", maxIDLen, b.ID, bot.Presets[b.ID].Weights, b.Title)
	}

	fmt.Println()
	fmt.Println("Also accepted: best, run:<id>, or weights like 1,2.5,-36,-4.2")
}

// resolveBot turns a bot argument into a bot and a display name.
// The run database is only opened for best and run:<id>.
func resolveBot(spec string) (string, sim.Bot, error) {
	if spec == "" {
		spec = defaultBot
	}

	if registry.Exists(spec) {
		b, err := registry.Create(spec)
		return spec, b, err
	}

	if spec == "best" || strings.HasPrefix(spec, "run:") {
		return resolveRunBot(spec)
	}

	w, err := bot.ParseWeights(spec)
	if err != nil {
		return "", nil, fmt.Errorf("unknown bot %q (see 'tetrisbot bots'): %w", spec, err)
	}
	return w.String(), bot.New(w, bot.DefaultEnv()), nil
}

func resolveRunBot(spec string) (string, sim.Bot, error) {
	store, err := openStore()
	if err != nil {
		return "", nil, err
	}
	defer store.Close()

	var run *storage.Run
	if spec == "best" {
		run, err = store.BestRun()
		if err == nil && run == nil {
			err = errors.New("no completed runs yet, run 'tetrisbot evolve' first")
		}
	} else {
		var id int64
		id, err = strconv.ParseInt(strings.TrimPrefix(spec, "run:"), 10, 64)
		if err != nil {
			return "", nil, fmt.Errorf("bad run id in %q", spec)
		}
		run, err = store.Run(id)
		if err == nil && run == nil {
			err = fmt.Errorf("run %d not found", id)
		}
	}
	if err != nil {
		return "", nil, err
	}
	if run.Status != storage.StatusCompleted {
		return "", nil, fmt.Errorf("run %d has no champion (status %s)", run.ID, run.Status)
	}

	w, err := bot.ParseWeights(run.Champion)
	if err != nil {
		return "", nil, fmt.Errorf("run %d: %w", run.ID, err)
	}
	return fmt.Sprintf("run #%d", run.ID), bot.New(w, bot.DefaultEnv()), nil
}
