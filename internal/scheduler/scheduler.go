package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
	"github.com/sandeepkv93/mindsync/internal/logger"
	"github.com/sandeepkv93/mindsync/internal/model"
	"github.com/sandeepkv93/mindsync/internal/notify"
)

var (
	ErrNotStarted        = errors.New("scheduler: not started")
	ErrStopped           = errors.New("scheduler: stopped")
	ErrMalformedReminder = errors.New("scheduler: malformed reminder")
)

type Option func(*Scheduler)

func WithClock(clock clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = clock }
}

func WithLogger(log logger.Logger) Option {
	return func(s *Scheduler) { s.log = log }
}

type tracked struct {
	reminder model.Reminder
	dueAt    time.Time
}

type reconcileReq struct {
	reminders []model.Reminder
	reply     chan error
}

type fireReq struct {
	id  string
	gen uint64
}

// Scheduler turns a changing reminder list into at most one delivery per
// reminder. Exact timers cover reminders due within the horizon; a periodic
// sweep catches whatever the timers missed. All state is owned by a single
// goroutine, so timer and sweep callbacks never run concurrently.
type Scheduler struct {
	cfg   Config
	loc   *time.Location
	clock clockwork.Clock
	sink  Sink
	log   logger.Logger

	reconcileCh chan reconcileReq
	fireCh      chan fireReq
	snapshotCh  chan chan Snapshot
	out         chan Delivery
	stopCh      chan struct{}
	doneCh      chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool
	dropped atomic.Uint64

	// loop-owned
	ticker    clockwork.Ticker
	timers    *exactTimers
	known     map[string]tracked
	order     []string
	delivered map[string]struct{}
	expired   map[string]struct{}
}

func New(cfg Config, sink Sink, opts ...Option) *Scheduler {
	cfg = cfg.withDefaults()
	s := &Scheduler{
		cfg:         cfg,
		loc:         cfg.Location,
		clock:       clockwork.NewRealClock(),
		sink:        sink,
		log:         logger.NewNopLogger(),
		reconcileCh: make(chan reconcileReq),
		fireCh:      make(chan fireReq),
		snapshotCh:  make(chan chan Snapshot),
		out:         make(chan Delivery, cfg.Buffer),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		known:       make(map[string]tracked),
		delivered:   make(map[string]struct{}),
		expired:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	s.timers = newExactTimers(s.clock, s.enqueueFire)
	return s
}

// C delivers an event per delivery. Events are dropped, not blocked on,
// when nobody is reading.
func (s *Scheduler) C() <-chan Delivery {
	return s.out
}

func (s *Scheduler) Dropped() uint64 {
	return s.dropped.Load()
}

// Start arms the sweep and begins processing. Calling it twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.ticker = s.clock.NewTicker(s.cfg.SweepInterval)
	go s.loop()
}

// Stop cancels the sweep and every armed timer and waits for the loop to
// exit. Delivery state is discarded with the instance.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	s.mu.Unlock()
	<-s.doneCh
}

// Reconcile replaces the tracked reminder list and re-arms exact timers
// from scratch. Malformed reminders are skipped and reported together in
// the returned error; the rest of the list is still scheduled.
func (s *Scheduler) Reconcile(ctx context.Context, reminders []model.Reminder) error {
	if err := s.running(); err != nil {
		return err
	}
	req := reconcileReq{
		reminders: slices.Clone(reminders),
		reply:     make(chan error, 1),
	}
	select {
	case s.reconcileCh <- req:
	case <-s.stopCh:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-s.doneCh:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) Snapshot(ctx context.Context) (Snapshot, error) {
	if err := s.running(); err != nil {
		return Snapshot{}, err
	}
	reply := make(chan Snapshot, 1)
	select {
	case s.snapshotCh <- reply:
	case <-s.stopCh:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-s.doneCh:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (s *Scheduler) running() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

func (s *Scheduler) enqueueFire(id string, gen uint64) {
	select {
	case s.fireCh <- fireReq{id: id, gen: gen}:
	case <-s.stopCh:
	}
}

func (s *Scheduler) loop() {
	defer close(s.doneCh)
	defer close(s.out)
	defer s.ticker.Stop()
	defer s.timers.cancelAll()

	for {
		// A pending sweep tick goes first so it observes the clock it fired at.
		select {
		case <-s.ticker.Chan():
			s.sweep()
			continue
		default:
		}

		select {
		case <-s.stopCh:
			return
		case req := <-s.reconcileCh:
			req.reply <- s.reconcile(req.reminders)
		case f := <-s.fireCh:
			if s.timers.claim(f.id, f.gen) {
				s.deliver(f.id, SourceTimer)
			}
		case <-s.ticker.Chan():
			s.sweep()
		case reply := <-s.snapshotCh:
			reply <- s.snapshot()
		}
	}
}

func (s *Scheduler) reconcile(reminders []model.Reminder) error {
	s.timers.cancelAll()

	now := s.clock.Now()
	var errs *multierror.Error
	known := make(map[string]tracked, len(reminders))
	order := make([]string, 0, len(reminders))
	armed := 0
	for _, r := range reminders {
		if _, done := s.delivered[r.ID]; done {
			continue
		}
		if strings.TrimSpace(r.ID) == "" {
			errs = multierror.Append(errs, fmt.Errorf("%w: missing id (title %q)", ErrMalformedReminder, r.Title))
			continue
		}
		dueAt, err := r.DueAt(s.loc)
		if err != nil {
			s.log.Warning("scheduler: skipping reminder %q: %v", r.ID, err)
			errs = multierror.Append(errs, fmt.Errorf("%w %q: %w", ErrMalformedReminder, r.ID, err))
			continue
		}
		if _, dup := known[r.ID]; !dup {
			order = append(order, r.ID)
		}
		known[r.ID] = tracked{reminder: r, dueAt: dueAt}

		wait := dueAt.Sub(now)
		if wait > 0 && wait <= s.cfg.Horizon {
			s.timers.arm(r.ID, wait)
			armed++
		}
		// Beyond the horizon or already due: left to the sweep.
	}
	s.known = known
	s.order = order
	s.log.Info("scheduler: reconciled %d reminders, %d exact timers armed", len(order), armed)
	return errs.ErrorOrNil()
}

// sweep delivers every tracked reminder that is due within the catch-up
// window and has no exact timer still pending for it. Overdue reminders
// are delivered however late unless MaxLateness is set. Reminders that
// have drifted inside the horizon since the last reconcile get armed.
func (s *Scheduler) sweep() {
	now := s.clock.Now()
	for _, id := range s.order {
		if _, done := s.delivered[id]; done {
			continue
		}
		tr, ok := s.known[id]
		if !ok {
			continue
		}
		diff := tr.dueAt.Sub(now)

		if s.cfg.MaxLateness > 0 && diff < -s.cfg.MaxLateness {
			if _, seen := s.expired[id]; !seen {
				s.expired[id] = struct{}{}
				s.log.Warning("scheduler: reminder %q expired, overdue by %s", id, -diff)
			}
			continue
		}

		switch {
		case diff <= 0:
			if -diff > s.cfg.CatchUpWindow {
				s.log.Info("scheduler: catching up reminder %q, overdue by %s", id, -diff)
			}
			s.deliver(id, SourceSweep)
		case s.timers.armed(id):
			// the exact timer will fire on time
		case diff <= s.cfg.CatchUpWindow:
			s.deliver(id, SourceSweep)
		case diff <= s.cfg.Horizon:
			s.timers.arm(id, diff)
		}
	}
}

func (s *Scheduler) deliver(id string, src Source) {
	if _, done := s.delivered[id]; done {
		return
	}
	tr, ok := s.known[id]
	if !ok {
		return
	}
	s.delivered[id] = struct{}{}
	s.timers.cancel(id)

	res := s.show(tr.reminder)
	now := s.clock.Now()
	s.log.Info("scheduler: delivered %q via %s (%s)", id, src, res.Status)

	ev := Delivery{
		ReminderID: id,
		Title:      tr.reminder.Title,
		DueAt:      tr.dueAt,
		FiredAt:    now,
		Source:     src,
		Result:     res,
	}
	select {
	case s.out <- ev:
	default:
		s.dropped.Add(1)
	}
}

func (s *Scheduler) show(r model.Reminder) (res notify.Result) {
	if s.sink == nil {
		return notify.Result{Status: notify.StatusSuppressed, Reason: "no sink configured"}
	}
	defer func() {
		if p := recover(); p != nil {
			s.log.Error("scheduler: sink panicked for %q: %v", r.ID, p)
			res = notify.Result{Status: notify.StatusSuppressed, Reason: fmt.Sprint(p)}
		}
	}()
	return s.sink.Show(NotificationFor(r, s.cfg.Icon))
}

func (s *Scheduler) snapshot() Snapshot {
	armed := s.timers.ids()
	slices.Sort(armed)
	delivered := make([]string, 0, len(s.delivered))
	for id := range s.delivered {
		delivered = append(delivered, id)
	}
	slices.Sort(delivered)
	return Snapshot{Armed: armed, Delivered: delivered, Tracked: len(s.known)}
}

// NotificationFor renders the title, body and icon shown for r.
func NotificationFor(r model.Reminder, icon string) notify.Notification {
	body := strings.TrimSpace(r.Description)
	if body == "" {
		body = defaultBody
	}
	return notify.Notification{
		Title: r.Title,
		Body:  fmt.Sprintf("%s\nPriority: %s", body, r.Priority),
		Icon:  icon,
	}
}
