package bot

import (
	"github.com/vovakirdan/tetris-evolve/internal/registry"
	"github.com/vovakirdan/tetris-evolve/internal/sim"
)

// Presets are hand-picked weights usable without an evolution run.
var Presets = map[string]struct {
	Title   string
	Weights Weights
}{
	"tuned":  {"Balanced weights from a long evolution run", Weights{1, 2.5, -36, -4.2}},
	"greedy": {"Maximise score only", Weights{1, 0, 0, 0}},
	"tidy":   {"Avoid holes, ignore score", Weights{0, 0, -10, -1}},
	"flat":   {"Keep the surface flat", Weights{0, 0, 0, -1}},
}

func init() {
	for id, p := range Presets {
		w := p.Weights
		registry.Register(id, p.Title, func() sim.Bot {
			return New(w, DefaultEnv())
		})
	}
}
