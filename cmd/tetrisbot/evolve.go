package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tetris-evolve/internal/bot"
	"github.com/vovakirdan/tetris-evolve/internal/genetic"
	"github.com/vovakirdan/tetris-evolve/internal/sim"
	"github.com/vovakirdan/tetris-evolve/internal/storage"
)

var (
	flagPopulation  int
	flagGenerations int
	flagWorkers     int
	flagGames       int
	flagKillLines   int
	flagNoRecord    bool
	flagTraceBest   bool
)

var evolveCmd = &cobra.Command{
	Use:   "evolve",
	Short: "Evolve a bot and record the run",
	Long: `Evolve weighted bots with a genetic algorithm.

Every generation each bot plays --games simulated games, the fittest
round(sqrt(population)) survive, every pair of survivors produces two
children and every survivor is carried over mutated. Games stop at
--kill-lines cleared lines.

The run, one fitness summary per generation and the champion's weights are
stored in the run database unless --no-record is given. The whole run is
reproducible from --seed.

Examples:
  tetrisbot evolve
  tetrisbot evolve --population 49 --generations 30 --seed 7
  tetrisbot evolve --games 3 --kill-lines 100 --trace`,
	Args: cobra.NoArgs,
	RunE: runEvolve,
}

func init() {
	evolveCmd.Flags().IntVar(&flagPopulation, "population", 0, "Genomes per generation (default from config)")
	evolveCmd.Flags().IntVar(&flagGenerations, "generations", 0, "Number of generations (default from config)")
	evolveCmd.Flags().IntVar(&flagWorkers, "workers", 0, "Parallel fitness evaluations (default from config, 0 = one per CPU)")
	evolveCmd.Flags().IntVar(&flagGames, "games", 0, "Games per fitness evaluation (default from config)")
	evolveCmd.Flags().IntVar(&flagKillLines, "kill-lines", 0, "Lines at which a game stops (default from config)")
	evolveCmd.Flags().BoolVar(&flagNoRecord, "no-record", false, "Do not store the run in the database")
	evolveCmd.Flags().BoolVar(&flagTraceBest, "trace", false, "Record a game of the champion as a Parquet trace")
}

// applyEvolveFlags copies explicitly set flags over the configuration.
func applyEvolveFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("population") {
		appConfig.Evolution.Population = flagPopulation
	}
	if flags.Changed("generations") {
		appConfig.Evolution.Generations = flagGenerations
	}
	if flags.Changed("workers") {
		appConfig.Evolution.Workers = flagWorkers
	}
	if flags.Changed("games") {
		appConfig.Fitness.Games = flagGames
	}
	if flags.Changed("kill-lines") {
		appConfig.Fitness.KillLines = flagKillLines
	}
	return appConfig.Validate()
}

func runEvolve(cmd *cobra.Command, _ []string) error {
	if err := applyEvolveFlags(cmd); err != nil {
		return err
	}
	evo := appConfig.Evolution
	runSeed := seed(evo.Seed)
	env := bot.Env{Games: appConfig.Fitness.Games, Sim: simConfig()}

	engine := genetic.NewEngine[bot.Weighted](runSeed, evo.Workers)
	population := bot.RandomPopulation(evo.Population, engine.Rand(), env)

	var (
		store *storage.Store
		runID int64
	)
	if !flagNoRecord {
		var err error
		if store, err = openStore(); err != nil {
			return err
		}
		defer store.Close()

		runID, err = store.CreateRun(storage.RunParams{
			Seed:        runSeed,
			Population:  evo.Population,
			Generations: evo.Generations,
			Games:       env.Games,
			KillLines:   env.Sim.KillLines,
		})
		if err != nil {
			return err
		}
	}

	runLog := logger.With("run", runID)
	runLog.Info("evolution started",
		"seed", runSeed,
		"population", evo.Population,
		"generations", evo.Generations,
		"games", env.Games,
		"kill_lines", env.Sim.KillLines,
	)

	start := time.Now()
	engine.OnGeneration = func(gen int, s genetic.Summary) {
		logGeneration(runLog, gen, s, time.Since(start))
		if store != nil {
			if err := store.SaveGeneration(runID, gen, s); err != nil {
				runLog.Warn("cannot save generation", "gen", gen, "error", err)
			}
		}
	}

	res, err := engine.Evolve(population, evo.Generations)
	if err != nil {
		if store != nil {
			if ferr := store.FailRun(runID, err); ferr != nil {
				runLog.Warn("cannot mark run failed", "error", ferr)
			}
		}
		return fmt.Errorf("evolution failed: %w", err)
	}

	if store != nil {
		if err := store.CompleteRun(runID, res.Champion.Weights.String(), res.Fitness); err != nil {
			return err
		}
	}
	runLog.Info("evolution finished", "fitness", res.Fitness, "elapsed", time.Since(start).Round(time.Millisecond))

	printChampion(runID, res)

	if flagTraceBest {
		path, err := recordTrace(fmt.Sprintf("run%d", runID), res.Champion, runSeed, 1)
		if err != nil {
			return err
		}
		fmt.Printf("Champion trace: %s\n", path)
	}
	return nil
}

// logGeneration logs the five-number fitness summary of one generation.
func logGeneration(l *log.Logger, gen int, s genetic.Summary, elapsed time.Duration) {
	l.Info("generation",
		"gen", gen,
		"max", s.Max,
		"upper_quartile", s.UpperQuartile,
		"median", s.Median,
		"lower_quartile", s.LowerQuartile,
		"min", s.Min,
		"elapsed", elapsed.Round(time.Millisecond),
	)
}

func printChampion(runID int64, res genetic.Result[bot.Weighted]) {
	fmt.Println()
	if runID != 0 {
		fmt.Printf("Run #%d champion (fitness %.1f)\n", runID, res.Fitness)
	} else {
		fmt.Printf("Champion (fitness %.1f)\n", res.Fitness)
	}
	for i, name := range bot.FeatureNames {
		fmt.Printf("  %-10s %12.4f\n", name, res.Champion.Weights[i])
	}
	fmt.Println()
	fmt.Printf("Weights: %s\n", res.Champion.Weights)
	if runID != 0 {
		fmt.Printf("Use it with: tetrisbot watch run:%d\n", runID)
	}
}

// recordTrace plays games with b and writes every move to a trace file in
// the configured trace directory.
func recordTrace(name string, b sim.Bot, gameSeed int64, games int) (string, error) {
	simulator := sim.New(gameSeed, simConfig())

	var rows []storage.TraceRow
	for game := range games {
		simulator.Play(b, func(m sim.Move) {
			rows = append(rows, storage.NewTraceRow(game, m))
		})
	}

	path, err := storage.WriteTrace(appConfig.Storage.Traces, traceName(name), rows)
	if err != nil {
		return "", err
	}
	logger.Debug("trace written", "path", path, "moves", len(rows))
	return path, nil
}
