package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tetris-evolve/internal/config"
	"github.com/vovakirdan/tetris-evolve/internal/platform/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch [bot]",
	Short: "Watch a bot play in the terminal",
	Long: `Show a bot playing games move by move. The pace speeds up with the game
level as configured in the watch section.

Controls:
  P/Space    - Pause
  N/Right    - Step one move while paused
  R          - Next game
  Ctrl+S     - Save the board to ~/.tetrisbot/screenshots
  Q/Esc      - Quit

Without a bot, a menu of the named bots is shown.

Examples:
  tetrisbot watch
  tetrisbot watch best
  tetrisbot watch run:4 --seed 99`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

// menuExtras offers the best recorded run in the bot menu when there is one.
func menuExtras() []tui.MenuItem {
	store, err := openStore()
	if err != nil {
		return nil
	}
	defer store.Close()

	best, err := store.BestRun()
	if err != nil || best == nil {
		return nil
	}
	return []tui.MenuItem{{
		BotID: "best",
		Title: fmt.Sprintf("Champion of run #%d (fitness %.0f)", best.ID, best.ChampionFitness),
	}}
}

// terminalSize returns the size of the terminal on stdout, or an error if
// stdout is not a terminal.
func terminalSize() (width, height int, err error) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0, 0, errors.New("this command needs an interactive terminal")
	}
	width, height = 80, 24 // Defaults
	if w, h, termErr := term.GetSize(fd); termErr == nil {
		width = w
		height = h
	}
	return width, height, nil
}

func runWatch(_ *cobra.Command, args []string) error {
	width, height, err := terminalSize()
	if err != nil {
		return err
	}

	var spec string
	if len(args) > 0 {
		spec = args[0]
	} else {
		spec, err = tui.RunMenu(menuExtras(), width, height)
		if err != nil || spec == "" {
			return err
		}
	}

	name, b, err := resolveBot(spec)
	if err != nil {
		return err
	}

	feed := tui.NewLiveFeed(name, b, seed(0), simConfig())
	return tui.RunWatch(feed, config.NewPace(appConfig.Watch), width, height)
}
