package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Loop       LoopConfig       `toml:"loop"`
	Submission SubmissionConfig `toml:"submission"`
	Parallel   ParallelConfig   `toml:"parallel"`
	Catalog    CatalogConfig    `toml:"catalog"`
	Scripting  ScriptingConfig  `toml:"scripting"`
	Arena      ArenaConfig      `toml:"arena"`
	Logging    LoggingConfig    `toml:"logging"`
}

type LoopConfig struct {
	TickRate time.Duration `toml:"tick_rate"`
	MaxTicks int           `toml:"max_ticks"` // 0 = run until signalled
}

type SubmissionConfig struct {
	Scheduler string `toml:"scheduler"` // "immediate" or "pump"
}

type ParallelConfig struct {
	Workers int `toml:"workers"` // 0 = no limit
}

type CatalogConfig struct {
	Path string `toml:"path"`
}

type ScriptingConfig struct {
	Formulas string `toml:"formulas"` // empty = built-in formulas
}

type ArenaConfig struct {
	SpawnEvery int `toml:"spawn_every"` // ticks between enemy spawns
	MaxEnemies int `toml:"max_enemies"`
	EnemyHP    int `toml:"enemy_hp"`
	EnemyArmor int `toml:"enemy_armor"`
	HeroPower  int `toml:"hero_power"` // damage dealt to every enemy each tick
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return defaults()
}

func (c *Config) validate() error {
	switch c.Submission.Scheduler {
	case "immediate", "pump":
	default:
		return fmt.Errorf("unknown submission scheduler %q", c.Submission.Scheduler)
	}
	if c.Loop.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be positive, got %s", c.Loop.TickRate)
	}
	if c.Arena.SpawnEvery <= 0 {
		return fmt.Errorf("spawn_every must be positive, got %d", c.Arena.SpawnEvery)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Loop: LoopConfig{
			TickRate: 50 * time.Millisecond,
		},
		Submission: SubmissionConfig{
			Scheduler: "immediate",
		},
		Parallel: ParallelConfig{
			Workers: 4,
		},
		Catalog: CatalogConfig{
			Path: "config/groups.yaml",
		},
		Arena: ArenaConfig{
			SpawnEvery: 10,
			MaxEnemies: 32,
			EnemyHP:    100,
			EnemyArmor: 2,
			HeroPower:  7,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
