// Package registry provides a global registry of named bots.
// Bot packages register presets in init() functions, so the CLI and the
// servers can look bots up by name without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/tetris-evolve/internal/sim"
)

// BotInfo contains metadata about a registered bot.
type BotInfo struct {
	ID    string
	Title string
}

// Factory creates a new instance of a bot.
type Factory func() sim.Bot

var (
	factories = make(map[string]Factory)
	titles    = make(map[string]string)
	mu        sync.RWMutex
)

// Register adds a bot factory to the registry.
// Panics if a bot with the same ID is already registered.
func Register(id, title string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: bot %q already registered", id))
	}

	factories[id] = f
	titles[id] = title
}

// List returns information about all registered bots, sorted by ID.
func List() []BotInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]BotInfo, 0, len(factories))
	for id := range factories {
		result = append(result, BotInfo{ID: id, Title: titles[id]})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates a bot by its ID.
func Create(id string) (sim.Bot, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown bot %q", id)
	}

	return f(), nil
}

// Exists checks if a bot with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}
