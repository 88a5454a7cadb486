package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/sandeepkv93/mindsync/internal/logger"
)

type Permission string

const (
	PermissionDefault     Permission = "default"
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionUnsupported Permission = "unsupported"
)

// ErrNoDecision is returned by a DecisionStore that has nothing saved yet.
var ErrNoDecision = errors.New("notify: no permission decision recorded")

type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

type DecisionStore interface {
	LoadDecision(ctx context.Context) (string, error)
	SaveDecision(ctx context.Context, decision string) error
}

// Gate tracks whether the user allowed notifications. A decision, once
// made, is saved and never prompted for again.
type Gate struct {
	capable  func() bool
	prompter Prompter
	store    DecisionStore
	log      logger.Logger

	mu     sync.Mutex
	state  Permission
	loaded bool
}

func NewGate(capable func() bool, prompter Prompter, store DecisionStore, log logger.Logger) *Gate {
	if capable == nil {
		capable = DesktopCapable
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Gate{
		capable:  capable,
		prompter: prompter,
		store:    store,
		log:      log,
		state:    PermissionDefault,
	}
}

// Request reports whether notifications may be shown, prompting only when
// no decision exists yet.
func (g *Gate) Request(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.capable() {
		g.state = PermissionUnsupported
		g.log.Info("notify: desktop notifications not supported here")
		return false
	}
	g.loadLocked(ctx)

	switch g.state {
	case PermissionGranted:
		return true
	case PermissionDenied:
		return false
	}

	if g.prompter == nil {
		return false
	}
	ok, err := g.prompter.Confirm(ctx, "Allow mindsync to show desktop notifications for reminders?")
	if err != nil {
		g.log.Warning("notify: permission prompt failed: %v", err)
		return false
	}
	g.state = PermissionDenied
	if ok {
		g.state = PermissionGranted
	}
	if g.store != nil {
		if err := g.store.SaveDecision(ctx, string(g.state)); err != nil {
			g.log.Warning("notify: save permission decision: %v", err)
		}
	}
	return ok
}

func (g *Gate) State() Permission {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gate) Granted() bool {
	return g.State() == PermissionGranted
}

func (g *Gate) loadLocked(ctx context.Context) {
	if g.loaded || g.store == nil {
		return
	}
	g.loaded = true
	raw, err := g.store.LoadDecision(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoDecision) {
			g.log.Warning("notify: load permission decision: %v", err)
		}
		return
	}
	switch Permission(raw) {
	case PermissionGranted, PermissionDenied:
		g.state = Permission(raw)
	}
}
