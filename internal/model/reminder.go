package model

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidPriority = errors.New("model: invalid reminder priority")
	ErrInvalidDate     = errors.New("model: invalid reminder date")
	ErrInvalidTime     = errors.New("model: invalid reminder time")
)

// DateLayout is the naive calendar date a reminder is stored with.
const DateLayout = "2006-01-02"

var timeLayouts = []string{"15:04:05", "15:04"}

type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

func (p Priority) IsValid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}

func (p Priority) String() string {
	return "P" + strconv.Itoa(int(p))
}

// ParsePriority accepts "1", "p1" or "P1".
func ParsePriority(raw string) (Priority, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "p")
	n, err := strconv.Atoi(trimmed)
	if err != nil || !Priority(n).IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
	}
	return Priority(n), nil
}

type Reminder struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Priority    Priority
	Date        string
	Time        string
	CreatedAt   time.Time
}

func (r Reminder) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("model: reminder id is required")
	}
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("model: reminder user_id is required")
	}
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("model: reminder title is required")
	}
	if !r.Priority.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, r.Priority)
	}
	if _, err := r.DueAt(time.UTC); err != nil {
		return err
	}
	return nil
}

// DueAt combines Date and Time into an instant in loc. Nothing about the
// zone is stored with the reminder; the caller picks it at evaluation time.
func (r Reminder) DueAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(r.Date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, r.Date)
	}
	clock, err := ParseClock(r.Time)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), clock.Second(), 0, loc), nil
}

// ParseClock parses an "HH:MM" or "HH:MM:SS" time of day.
func ParseClock(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if tm, err := time.Parse(layout, raw); err == nil {
			return tm, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
}

// SortReminders orders by priority, then date, then time, matching the
// order the store lists them in.
func SortReminders(items []Reminder) {
	slices.SortStableFunc(items, func(a, b Reminder) int {
		return cmp.Or(
			cmp.Compare(a.Priority, b.Priority),
			cmp.Compare(a.Date, b.Date),
			cmp.Compare(normalizeClock(a.Time), normalizeClock(b.Time)),
		)
	})
}

func normalizeClock(raw string) string {
	tm, err := ParseClock(raw)
	if err != nil {
		return raw
	}
	return tm.Format("15:04:05")
}
