package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tetris-evolve/internal/config"
	"github.com/vovakirdan/tetris-evolve/internal/platform/tui"
	"github.com/vovakirdan/tetris-evolve/internal/storage"
)

var (
	flagTraceWatch bool
	flagTraceList  bool
)

var traceCmd = &cobra.Command{
	Use:   "trace [file]",
	Short: "Inspect or replay a recorded game trace",
	Long: `Summarise a Parquet game trace written by 'evolve --trace' or
'simulate --trace'. Without a file, the newest trace in the configured trace
directory is used.

Examples:
  tetrisbot trace
  tetrisbot trace --list
  tetrisbot trace ~/.tetrisbot/traces/trace_best_1700000000.parquet --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTrace,
}

func init() {
	traceCmd.Flags().BoolVar(&flagTraceWatch, "watch", false, "Replay the trace in the terminal viewer")
	traceCmd.Flags().BoolVar(&flagTraceList, "list", false, "List trace files, newest first")
}

// traceName makes a bot name safe for use in a trace file name.
func traceName(name string) string {
	return strings.NewReplacer(",", "_", " ", "_", "#", "", "/", "_").Replace(name)
}

func runTrace(_ *cobra.Command, args []string) error {
	paths, err := storage.Traces(appConfig.Storage.Traces)
	if err != nil {
		return err
	}

	if flagTraceList {
		if len(paths) == 0 {
			fmt.Println("No traces recorded yet.")
			return nil
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	}

	var path string
	switch {
	case len(args) > 0:
		path = args[0]
	case len(paths) > 0:
		path = paths[0]
	default:
		return errors.New("no traces recorded yet, use 'simulate --trace' or 'evolve --trace'")
	}

	rows, err := storage.ReadTrace(path)
	if err != nil {
		return err
	}

	if flagTraceWatch {
		width, height, err := terminalSize()
		if err != nil {
			return err
		}
		feed := tui.NewTraceFeed(filepath.Base(path), rows)
		return tui.RunWatch(feed, config.NewPace(appConfig.Watch), width, height)
	}

	printTrace(path, rows)
	return nil
}

func printTrace(path string, rows []storage.TraceRow) {
	fmt.Printf("Trace %s\n", path)
	if info, err := os.Stat(path); err == nil {
		fmt.Printf("Recorded %s, %d moves\n", info.ModTime().Format("2006-01-02 15:04"), len(rows))
	}
	fmt.Println()

	if len(rows) == 0 {
		fmt.Println("The trace is empty.")
		return
	}

	fmt.Printf("  %-4s  %-6s  %-10s  %-6s  %s\n", "Game", "Moves", "Score", "Level", "Lines")
	fmt.Printf("  %-4s  %-6s  %-10s  %-6s  %s\n", "----", "-----", "-----", "-----", "-----")

	start := 0
	for i := range rows {
		if i+1 < len(rows) && rows[i+1].Game == rows[i].Game {
			continue
		}
		last := rows[i]
		fmt.Printf("  %-4d  %-6d  %-10d  %-6d  %d\n", last.Game+1, i-start+1, last.Score, last.Level, last.Lines)
		start = i + 1
	}
}
