package config

import (
	"math"
	"time"
)

// Pace calculates the viewer's delay between moves from the game level.
type Pace struct {
	cfg WatchConfig
}

// NewPace creates a pace schedule.
func NewPace(cfg WatchConfig) Pace {
	return Pace{cfg: cfg}
}

// Progress returns how far level is towards MaxLevel (0.0 to 1.0).
func (p Pace) Progress(level int) float64 {
	maxAt := float64(p.cfg.MaxLevel)
	if maxAt <= 0 {
		return 1 // Full speed from the start
	}
	return clampF(float64(level)/maxAt, 0.0, 1.0)
}

// Tick returns the delay between moves at the given game level.
// It shrinks linearly from TickMS at level 0 to MinTickMS at MaxLevel.
func (p Pace) Tick(level int) time.Duration {
	slow := float64(p.cfg.TickMS)
	fast := float64(min(p.cfg.MinTickMS, p.cfg.TickMS))
	if fast < 1 {
		fast = 1
	}
	ms := slow - p.Progress(level)*(slow-fast)
	return time.Duration(math.Round(ms)) * time.Millisecond
}

// clampF restricts a float64 to [min, max].
func clampF(val, min, max float64) float64 {
	return math.Max(min, math.Min(max, val))
}
