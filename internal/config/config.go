// Package config provides YAML-based configuration loading for evolution
// runs, the decision server, storage locations and the terminal viewer.
package config

import "time"

// Config is the complete tetrisbot configuration.
type Config struct {
	Evolution EvolutionConfig `yaml:"evolution"`
	Fitness   FitnessConfig   `yaml:"fitness"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Watch     WatchConfig     `yaml:"watch"`
}

// EvolutionConfig controls the genetic algorithm.
type EvolutionConfig struct {
	Population  int   `yaml:"population"`
	Generations int   `yaml:"generations"`
	Workers     int   `yaml:"workers"` // 0 = one per CPU
	Seed        int64 `yaml:"seed"`    // 0 = derive from the clock
}

// FitnessConfig defines the games every genome is scored on.
type FitnessConfig struct {
	Games      int `yaml:"games"`
	KillLines  int `yaml:"kill_lines"`
	StartLevel int `yaml:"start_level"`
}

// ServerConfig defines the decision server transports.
// An empty address disables that transport.
type ServerConfig struct {
	SSHAddr     string        `yaml:"ssh_addr"`
	WSAddr      string        `yaml:"ws_addr"`
	HostKey     string        `yaml:"host_key"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// StorageConfig locates the run database and the trace directory.
type StorageConfig struct {
	DB     string `yaml:"db"`
	Traces string `yaml:"traces"`
}

// WatchConfig defines the pace of the terminal viewer.
type WatchConfig struct {
	TickMS    int `yaml:"tick_ms"`     // Delay between moves at level 0
	MinTickMS int `yaml:"min_tick_ms"` // Delay once MaxLevel is reached
	MaxLevel  int `yaml:"max_level"`   // Game level at which the pace stops increasing
}
