package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sandeepkv93/mindsync/internal/scheduler"
)

const envPrefix = "MINDSYNC_"

type Config struct {
	UserID    string          `koanf:"user_id"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Notify    NotifyConfig    `koanf:"notify"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type LogConfig struct {
	Path string `koanf:"path"`
}

type SchedulerConfig struct {
	Horizon       time.Duration `koanf:"horizon"`
	CatchUpWindow time.Duration `koanf:"catch_up_window"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	MaxLateness   time.Duration `koanf:"max_lateness"`
	Buffer        int           `koanf:"buffer"`
}

type NotifyConfig struct {
	Desktop   bool   `koanf:"desktop"`
	Sound     bool   `koanf:"sound"`
	Icon      string `koanf:"icon"`
	SoundFile string `koanf:"sound_file"`
}

// Load layers defaults, the YAML file at configPath (if it exists), a .env
// file in the working directory and MINDSYNC_* environment variables.
// Nested keys use a double underscore: MINDSYNC_SCHEDULER__SWEEP_INTERVAL.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		configPath = expandPath(configPath)

		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Log.Path = expandPath(cfg.Log.Path)
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return fmt.Errorf("user_id is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Scheduler.SweepInterval < 0 || c.Scheduler.Horizon < 0 || c.Scheduler.CatchUpWindow < 0 {
		return fmt.Errorf("scheduler durations must not be negative")
	}
	if c.Scheduler.MaxLateness < 0 {
		return fmt.Errorf("scheduler.max_lateness must not be negative")
	}
	return nil
}

// SchedulerConfig converts to the scheduler's own config. Zero durations
// fall back to the scheduler defaults.
func (c *Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		Horizon:       c.Scheduler.Horizon,
		CatchUpWindow: c.Scheduler.CatchUpWindow,
		SweepInterval: c.Scheduler.SweepInterval,
		MaxLateness:   c.Scheduler.MaxLateness,
		Buffer:        c.Scheduler.Buffer,
		Icon:          c.Notify.Icon,
	}
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	return path
}
