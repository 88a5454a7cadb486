package scheduler

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
	"github.com/sandeepkv93/mindsync/internal/model"
	"github.com/sandeepkv93/mindsync/internal/notify"
)

var base = time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu    sync.Mutex
	shown []notify.Notification
	ch    chan notify.Notification
}

func newRecordingSink() *recordingSink {
	return &recordingSink{ch: make(chan notify.Notification, 64)}
}

func (r *recordingSink) Show(n notify.Notification) notify.Result {
	r.mu.Lock()
	r.shown = append(r.shown, n)
	r.mu.Unlock()
	select {
	case r.ch <- n:
	default:
	}
	return notify.Result{Status: notify.StatusDispatched}
}

func (r *recordingSink) count(title string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.shown {
		if item.Title == title {
			n++
		}
	}
	return n
}

func (r *recordingSink) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shown)
}

func (r *recordingSink) waitShown(t *testing.T, timeout time.Duration) notify.Notification {
	t.Helper()
	select {
	case n := <-r.ch:
		return n
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for notification")
		return notify.Notification{}
	}
}

func (r *recordingSink) expectNone(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case n := <-r.ch:
		t.Fatalf("unexpected notification: %+v", n)
	case <-time.After(wait):
	}
}

func reminderAt(id string, at time.Time) model.Reminder {
	return model.Reminder{
		ID:       id,
		UserID:   "u1",
		Title:    "title-" + id,
		Priority: model.PriorityHigh,
		Date:     at.Format(model.DateLayout),
		Time:     at.Format("15:04:05"),
	}
}

func newFakeScheduler(t *testing.T, cfg Config) (*Scheduler, *clockwork.FakeClock, *recordingSink) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(base)
	sink := newRecordingSink()
	cfg.Location = time.UTC
	s := New(cfg, sink, WithClock(clock))
	s.Start()
	t.Cleanup(s.Stop)
	return s, clock, sink
}

func snapshot(t *testing.T, s *Scheduler) Snapshot {
	t.Helper()
	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return snap
}

func reconcile(t *testing.T, s *Scheduler, items ...model.Reminder) {
	t.Helper()
	if err := s.Reconcile(context.Background(), items); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
}

func TestExactTimerDeliversOnce(t *testing.T) {
	s, clock, sink := newFakeScheduler(t, DefaultConfig())
	r := reminderAt("a", base.Add(2*time.Second))
	r.Description = "drink water"
	reconcile(t, s, r)

	if got := snapshot(t, s).Armed; !slices.Equal(got, []string{"a"}) {
		t.Fatalf("expected a armed, got %v", got)
	}

	clock.Advance(2 * time.Second)
	n := sink.waitShown(t, time.Second)
	if n.Title != "title-a" {
		t.Fatalf("unexpected title: %q", n.Title)
	}
	if n.Body != "drink water\nPriority: P1" || n.Icon != DefaultIcon {
		t.Fatalf("unexpected notification: %+v", n)
	}

	ev := <-s.C()
	if ev.ReminderID != "a" || ev.Source != SourceTimer || ev.Result.Status != notify.StatusDispatched {
		t.Fatalf("unexpected delivery event: %+v", ev)
	}

	// Reappearing unchanged must not fire again, via timer or sweep.
	reconcile(t, s, r)
	clock.Advance(DefaultSweepInterval)
	snap := snapshot(t, s)
	if len(snap.Armed) != 0 || !slices.Equal(snap.Delivered, []string{"a"}) {
		t.Fatalf("unexpected snapshot after redelivery attempt: %+v", snap)
	}
	sink.expectNone(t, 50*time.Millisecond)
	if sink.count("title-a") != 1 {
		t.Fatalf("expected exactly one show, got %d", sink.count("title-a"))
	}
}

func TestSweepCatchesUpPastDueReminder(t *testing.T) {
	s, clock, sink := newFakeScheduler(t, DefaultConfig())
	reconcile(t, s, reminderAt("late", base.Add(-30*time.Second)))

	if armed := snapshot(t, s).Armed; len(armed) != 0 {
		t.Fatalf("past-due reminder must not be armed, got %v", armed)
	}

	clock.Advance(DefaultSweepInterval)
	if n := sink.waitShown(t, time.Second); n.Title != "title-late" {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if ev := <-s.C(); ev.Source != SourceSweep {
		t.Fatalf("expected sweep delivery, got %s", ev.Source)
	}
}

func TestSweepDeliversArbitrarilyStaleReminder(t *testing.T) {
	s, clock, sink := newFakeScheduler(t, DefaultConfig())
	reconcile(t, s, reminderAt("ancient", base.Add(-72*time.Hour)))

	clock.Advance(DefaultSweepInterval)
	if n := sink.waitShown(t, time.Second); n.Title != "title-ancient" {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestMaxLatenessExpiresStaleReminder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLateness = time.Hour
	s, clock, sink := newFakeScheduler(t, cfg)
	reconcile(t, s,
		reminderAt("ancient", base.Add(-72*time.Hour)),
		reminderAt("recent", base.Add(-10*time.Minute)),
	)

	clock.Advance(DefaultSweepInterval)
	if n := sink.waitShown(t, time.Second); n.Title != "title-recent" {
		t.Fatalf("unexpected notification: %+v", n)
	}
	clock.Advance(DefaultSweepInterval)
	snapshot(t, s)
	sink.expectNone(t, 50*time.Millisecond)
}

func TestReconcileIsIdempotent(t *testing.T) {
	s, _, sink := newFakeScheduler(t, DefaultConfig())
	items := []model.Reminder{
		reminderAt("r1", base.Add(time.Minute)),
		reminderAt("r2", base.Add(2*time.Hour)),
	}
	reconcile(t, s, items...)
	first := snapshot(t, s)
	reconcile(t, s, items...)
	second := snapshot(t, s)

	if !slices.Equal(first.Armed, second.Armed) || !slices.Equal(first.Armed, []string{"r1", "r2"}) {
		t.Fatalf("armed sets differ: first=%v second=%v", first.Armed, second.Armed)
	}
	if sink.total() != 0 {
		t.Fatalf("expected no deliveries, got %d", sink.total())
	}
}

func TestDeletionCancelsPendingDelivery(t *testing.T) {
	s, clock, sink := newFakeScheduler(t, DefaultConfig())
	reconcile(t, s, reminderAt("gone", base.Add(10*time.Second)))
	reconcile(t, s)

	if armed := snapshot(t, s).Armed; len(armed) != 0 {
		t.Fatalf("expected no armed timers, got %v", armed)
	}
	clock.Advance(10*time.Second + 500*time.Millisecond)
	clock.Advance(DefaultSweepInterval)
	snapshot(t, s)
	sink.expectNone(t, 50*time.Millisecond)
}

func TestHorizonBoundsExactTimers(t *testing.T) {
	s, _, _ := newFakeScheduler(t, DefaultConfig())
	reconcile(t, s,
		reminderAt("far", base.Add(25*time.Hour)),
		reminderAt("near", base.Add(23*time.Hour)),
	)
	snap := snapshot(t, s)
	if !slices.Equal(snap.Armed, []string{"near"}) {
		t.Fatalf("expected only near armed, got %v", snap.Armed)
	}
	if snap.Tracked != 2 {
		t.Fatalf("expected both tracked, got %d", snap.Tracked)
	}
}

func TestSweepArmsReminderThatEnteredHorizon(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Horizon = 5 * time.Minute
	s, clock, sink := newFakeScheduler(t, cfg)
	reconcile(t, s, reminderAt("later", base.Add(6*time.Minute)))

	if armed := snapshot(t, s).Armed; len(armed) != 0 {
		t.Fatalf("expected nothing armed yet, got %v", armed)
	}

	// First tick: still 5m30s out, beyond the horizon.
	clock.Advance(DefaultSweepInterval)
	if armed := snapshot(t, s).Armed; len(armed) != 0 {
		t.Fatalf("expected nothing armed after first sweep, got %v", armed)
	}
	// Second tick: exactly on the horizon.
	clock.Advance(DefaultSweepInterval)
	if armed := snapshot(t, s).Armed; !slices.Equal(armed, []string{"later"}) {
		t.Fatalf("expected sweep to arm later, got %v", armed)
	}
	clock.Advance(DefaultSweepInterval)
	clock.Advance(DefaultSweepInterval)
	snapshot(t, s)

	clock.Advance(4 * time.Minute)
	if n := sink.waitShown(t, time.Second); n.Title != "title-later" {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if sink.count("title-later") != 1 {
		t.Fatalf("expected a single delivery, got %d", sink.count("title-later"))
	}
}

func TestSimultaneousRemindersFireIndependently(t *testing.T) {
	s, clock, sink := newFakeScheduler(t, DefaultConfig())
	due := base.Add(5 * time.Second)
	reconcile(t, s, reminderAt("x", due), reminderAt("y", due), reminderAt("z", due))

	clock.Advance(5 * time.Second)
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		seen[sink.waitShown(t, time.Second).Title] = true
	}
	for _, id := range []string{"x", "y", "z"} {
		if !seen["title-"+id] {
			t.Fatalf("missing delivery for %s: %v", id, seen)
		}
	}
}

func TestReconcileSkipsMalformedReminders(t *testing.T) {
	s, _, _ := newFakeScheduler(t, DefaultConfig())
	bad := reminderAt("bad", base.Add(time.Minute))
	bad.Time = "quarter past"
	noID := reminderAt("", base.Add(time.Minute))
	good := reminderAt("good", base.Add(time.Minute))

	err := s.Reconcile(context.Background(), []model.Reminder{bad, good, noID})
	if err == nil {
		t.Fatal("expected error for malformed reminders")
	}
	var merr *multierror.Error
	if !errors.As(err, &merr) || len(merr.Errors) != 2 {
		t.Fatalf("expected two aggregated errors, got %v", err)
	}
	for _, e := range merr.Errors {
		if !errors.Is(e, ErrMalformedReminder) {
			t.Fatalf("expected ErrMalformedReminder, got %v", e)
		}
	}
	if !errors.Is(merr.Errors[0], model.ErrInvalidTime) {
		t.Fatalf("expected cause to be kept, got %v", merr.Errors[0])
	}

	if armed := snapshot(t, s).Armed; !slices.Equal(armed, []string{"good"}) {
		t.Fatalf("valid reminder should still be armed, got %v", armed)
	}
}

func TestEditedReminderIsRearmed(t *testing.T) {
	s, clock, sink := newFakeScheduler(t, DefaultConfig())
	r := reminderAt("edit", base.Add(10*time.Second))
	reconcile(t, s, r)

	moved := reminderAt("edit", base.Add(20*time.Second))
	reconcile(t, s, moved)

	clock.Advance(10 * time.Second)
	snapshot(t, s)
	sink.expectNone(t, 50*time.Millisecond)

	clock.Advance(10 * time.Second)
	sink.waitShown(t, time.Second)
}

func TestLifecycleErrors(t *testing.T) {
	s := New(DefaultConfig(), newRecordingSink(), WithClock(clockwork.NewFakeClock()))
	if err := s.Reconcile(context.Background(), nil); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
	if err := s.Reconcile(context.Background(), nil); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if _, ok := <-s.C(); ok {
		t.Fatal("expected delivery channel closed after stop")
	}
}

func TestStopCancelsArmedTimers(t *testing.T) {
	clock := clockwork.NewFakeClockAt(base)
	sink := newRecordingSink()
	cfg := DefaultConfig()
	cfg.Location = time.UTC
	s := New(cfg, sink, WithClock(clock))
	s.Start()
	reconcile(t, s, reminderAt("pending", base.Add(time.Second)))
	s.Stop()

	clock.Advance(time.Minute)
	sink.expectNone(t, 50*time.Millisecond)
}

func TestConfigDefaultsApplied(t *testing.T) {
	cfg := Config{MaxLateness: -time.Second}.withDefaults()
	if cfg.Horizon != 24*time.Hour || cfg.CatchUpWindow != time.Minute || cfg.SweepInterval != 30*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.MaxLateness != 0 || cfg.Buffer != DefaultBuffer || cfg.Icon != DefaultIcon {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestNotificationForDefaultsBody(t *testing.T) {
	n := NotificationFor(model.Reminder{Title: "Pay rent", Priority: model.PriorityLow}, "icon.png")
	if n.Body != "Reminder due now!\nPriority: P3" || n.Title != "Pay rent" || n.Icon != "icon.png" {
		t.Fatalf("unexpected notification: %+v", n)
	}
}
