package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UserID != "local" {
		t.Fatalf("unexpected user id: %q", cfg.UserID)
	}
	if cfg.Scheduler.Horizon != 24*time.Hour || cfg.Scheduler.CatchUpWindow != time.Minute || cfg.Scheduler.SweepInterval != 30*time.Second {
		t.Fatalf("unexpected scheduler defaults: %+v", cfg.Scheduler)
	}
	if cfg.Scheduler.MaxLateness != 0 || cfg.Scheduler.Buffer != 64 {
		t.Fatalf("unexpected scheduler defaults: %+v", cfg.Scheduler)
	}
	if !cfg.Notify.Desktop || !cfg.Notify.Sound || cfg.Notify.Icon != "bell-icon.png" {
		t.Fatalf("unexpected notify defaults: %+v", cfg.Notify)
	}
	if strings.HasPrefix(cfg.Database.Path, "~") {
		t.Fatalf("expected expanded database path, got %q", cfg.Database.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	yaml := "user_id: alice\nscheduler:\n  sweep_interval: 10s\n  horizon: 12h\nnotify:\n  sound: false\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MINDSYNC_SCHEDULER__HORIZON", "6h")
	t.Setenv("MINDSYNC_DATABASE__PATH", "/tmp/custom.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UserID != "alice" {
		t.Fatalf("expected user from file, got %q", cfg.UserID)
	}
	if cfg.Scheduler.SweepInterval != 10*time.Second {
		t.Fatalf("expected sweep interval from file, got %s", cfg.Scheduler.SweepInterval)
	}
	if cfg.Scheduler.Horizon != 6*time.Hour {
		t.Fatalf("expected env to override horizon, got %s", cfg.Scheduler.Horizon)
	}
	if cfg.Notify.Sound {
		t.Fatal("expected sound disabled from file")
	}
	if cfg.Database.Path != "/tmp/custom.db" {
		t.Fatalf("unexpected db path: %q", cfg.Database.Path)
	}

	sc := cfg.SchedulerConfig()
	if sc.Horizon != 6*time.Hour || sc.SweepInterval != 10*time.Second || sc.Icon != "bell-icon.png" {
		t.Fatalf("unexpected scheduler config: %+v", sc)
	}
}

func TestLoadMissingFileIsIgnored(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("missing config file should be ignored: %v", err)
	}
}

func TestValidateRejectsNegativeDurations(t *testing.T) {
	cfg := &Config{UserID: "u", Database: DatabaseConfig{Path: "x.db"}}
	cfg.Scheduler.MaxLateness = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
	cfg.Scheduler.MaxLateness = 0
	cfg.UserID = " "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected user id validation error")
	}
}

func TestEnvKeyMapping(t *testing.T) {
	if got := envKey("MINDSYNC_SCHEDULER__CATCH_UP_WINDOW"); got != "scheduler.catch_up_window" {
		t.Fatalf("unexpected key: %q", got)
	}
	if got := envKey("MINDSYNC_USER_ID"); got != "user_id" {
		t.Fatalf("unexpected key: %q", got)
	}
}
