package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sandeepkv93/mindsync/internal/logger"
)

const defaultDispatchTimeout = 10 * time.Second

type Notification struct {
	Title string
	Body  string
	Icon  string
}

type Status string

const (
	StatusDispatched Status = "dispatched"
	StatusSuppressed Status = "suppressed"
)

// Result reports what Show did. Callers may log it; it carries no error
// because display failures never reach the caller.
type Result struct {
	Status Status
	Reason string
}

type Displayer interface {
	Display(ctx context.Context, n Notification) error
}

type Player interface {
	Play(ctx context.Context) error
}

type PermissionChecker interface {
	Granted() bool
}

// DesktopSink shows a desktop notification and plays a sound. Both run in
// the background and fail independently of each other.
type DesktopSink struct {
	display Displayer
	sound   Player
	perm    PermissionChecker
	log     logger.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDesktopSink builds a sink. A nil display or sound disables that half;
// a nil perm means notifications are always allowed.
func NewDesktopSink(display Displayer, sound Player, perm PermissionChecker, log logger.Logger) *DesktopSink {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &DesktopSink{
		display: display,
		sound:   sound,
		perm:    perm,
		log:     log,
		timeout: defaultDispatchTimeout,
	}
}

func (s *DesktopSink) Show(n Notification) Result {
	if s.perm != nil && !s.perm.Granted() {
		return Result{Status: StatusSuppressed, Reason: "notification permission not granted"}
	}
	if s.display != nil {
		s.dispatch("display", n.Title, func(ctx context.Context) error {
			return s.display.Display(ctx, n)
		})
	}
	if s.sound != nil {
		s.dispatch("sound", n.Title, s.sound.Play)
	}
	return Result{Status: StatusDispatched}
}

// Wait blocks until every dispatched display and sound call has returned.
func (s *DesktopSink) Wait() {
	s.wg.Wait()
}

func (s *DesktopSink) dispatch(kind, title string, fn func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("notify: %s panicked for %q: %v", kind, title, r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.log.Warning("notify: %s failed for %q: %v", kind, title, err)
		}
	}()
}
