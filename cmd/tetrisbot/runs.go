package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tetris-evolve/internal/platform/tui"
	"github.com/vovakirdan/tetris-evolve/internal/storage"
)

var (
	flagRunsLimit int
	flagRunsTUI   bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List evolution runs",
	Long: `Display the most recent evolution runs with their champions.

Examples:
  tetrisbot runs
  tetrisbot runs --tui
  tetrisbot runs show 3
  tetrisbot runs delete 3`,
	Args: cobra.NoArgs,
	RunE: runRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the generations of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a run and its generations",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

func init() {
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 20, "Number of runs to list")
	runsCmd.Flags().BoolVar(&flagRunsTUI, "tui", false, "Browse runs interactively")
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
}

func runRuns(_ *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if flagRunsTUI {
		width, height, err := terminalSize()
		if err != nil {
			return err
		}
		return tui.RunRuns(store, width, height)
	}

	runs, err := store.RecentRuns(flagRunsLimit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Start one with 'tetrisbot evolve'.")
		return nil
	}

	// Print header
	fmt.Printf("  %-5s  %-9s  %-10s  %-4s  %-4s  %-16s  %s\n", "Run", "Status", "Fitness", "Pop", "Gens", "Started", "Champion")
	fmt.Printf("  %-5s  %-9s  %-10s  %-4s  %-4s  %-16s  %s\n", "---", "------", "-------", "---", "----", "-------", "--------")

	for _, r := range runs {
		fitness, champion := "-", r.Champion
		switch r.Status {
		case storage.StatusCompleted:
			fitness = fmt.Sprintf("%.1f", r.ChampionFitness)
		case storage.StatusFailed:
			champion = r.Error
		}
		fmt.Printf("  %-5d  %-9s  %-10s  %-4d  %-4d  %-16s  %s\n",
			r.ID, r.Status, fitness, r.Population, r.Generations,
			r.CreatedAt.Format("2006-01-02 15:04"), champion)
	}

	best, err := store.BestRun()
	if err == nil && best != nil {
		fmt.Println()
		fmt.Printf("Best: run #%d, fitness %.1f\n", best.ID, best.ChampionFitness)
	}
	return nil
}

func parseRunID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid run id %q", s)
	}
	return id, nil
}

func runRunsShow(_ *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Run(id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %d not found", id)
	}
	gens, err := store.Generations(id)
	if err != nil {
		return err
	}

	fmt.Printf("Run #%d (%s)\n", run.ID, run.Status)
	fmt.Printf("  seed %d, population %d, %d generations, %d games, kill at %d lines\n",
		run.Seed, run.Population, run.Generations, run.Games, run.KillLines)
	switch run.Status {
	case storage.StatusCompleted:
		fmt.Printf("  champion %s, fitness %.1f\n", run.Champion, run.ChampionFitness)
	case storage.StatusFailed:
		fmt.Printf("  error: %s\n", run.Error)
	}
	fmt.Println()

	if len(gens) == 0 {
		fmt.Println("No generations recorded.")
		return nil
	}
	fmt.Printf("  %-4s  %s\n", "Gen", "Fitness (max / upper quartile / median / lower quartile / min)")
	for _, g := range gens {
		fmt.Printf("  %-4d  %s\n", g.Index, g.Summary)
	}
	return nil
}

func runRunsDelete(_ *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteRun(id); err != nil {
		return err
	}
	logger.Info("run deleted", "run", id)
	return nil
}
