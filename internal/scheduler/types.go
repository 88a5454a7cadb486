package scheduler

import (
	"time"

	"github.com/sandeepkv93/mindsync/internal/notify"
)

const (
	DefaultHorizon       = 24 * time.Hour
	DefaultCatchUpWindow = 60 * time.Second
	DefaultSweepInterval = 30 * time.Second
	DefaultBuffer        = 64
	DefaultIcon          = "bell-icon.png"
	defaultBody          = "Reminder due now!"
)

type Config struct {
	// Horizon bounds how far ahead an exact timer is armed.
	Horizon time.Duration
	// CatchUpWindow is how close to its due instant the sweep delivers a
	// reminder that has no exact timer.
	CatchUpWindow time.Duration
	SweepInterval time.Duration
	// MaxLateness, when positive, expires reminders more overdue than this
	// instead of delivering them. Zero delivers however late.
	MaxLateness time.Duration
	Buffer      int
	Icon        string
	// Location interprets reminder dates and times. Nil means time.Local.
	Location *time.Location
}

func DefaultConfig() Config {
	return Config{
		Horizon:       DefaultHorizon,
		CatchUpWindow: DefaultCatchUpWindow,
		SweepInterval: DefaultSweepInterval,
		Buffer:        DefaultBuffer,
		Icon:          DefaultIcon,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Horizon <= 0 {
		c.Horizon = def.Horizon
	}
	if c.CatchUpWindow <= 0 {
		c.CatchUpWindow = def.CatchUpWindow
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = def.SweepInterval
	}
	if c.MaxLateness < 0 {
		c.MaxLateness = 0
	}
	if c.Buffer <= 0 {
		c.Buffer = def.Buffer
	}
	if c.Icon == "" {
		c.Icon = def.Icon
	}
	return c
}

// Sink is the side effect a delivery triggers.
type Sink interface {
	Show(n notify.Notification) notify.Result
}

type Source string

const (
	SourceTimer Source = "timer"
	SourceSweep Source = "sweep"
)

// Delivery describes one reminder that was surfaced to the user.
type Delivery struct {
	ReminderID string
	Title      string
	DueAt      time.Time
	FiredAt    time.Time
	Source     Source
	Result     notify.Result
}

type Snapshot struct {
	Armed     []string
	Delivered []string
	Tracked   int
}
