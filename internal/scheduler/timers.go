package scheduler

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// exactTimers holds one single-fire timer per armed reminder. Every timer
// carries the generation it was armed under so a fire that raced a
// cancellation can be recognised and dropped.
type exactTimers struct {
	clock  clockwork.Clock
	fire   func(id string, gen uint64)
	gen    uint64
	timers map[string]clockwork.Timer
}

func newExactTimers(clock clockwork.Clock, fire func(id string, gen uint64)) *exactTimers {
	return &exactTimers{
		clock:  clock,
		fire:   fire,
		timers: make(map[string]clockwork.Timer),
	}
}

func (t *exactTimers) arm(id string, wait time.Duration) {
	t.cancel(id)
	gen := t.gen
	t.timers[id] = t.clock.AfterFunc(wait, func() {
		t.fire(id, gen)
	})
}

func (t *exactTimers) cancel(id string) {
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
}

// cancelAll stops every timer and starts a new generation.
func (t *exactTimers) cancelAll() {
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
	t.gen++
}

// claim reports whether a fire for id under gen is still current, and
// forgets the timer if so.
func (t *exactTimers) claim(id string, gen uint64) bool {
	if gen != t.gen {
		return false
	}
	if _, ok := t.timers[id]; !ok {
		return false
	}
	delete(t.timers, id)
	return true
}

func (t *exactTimers) armed(id string) bool {
	_, ok := t.timers[id]
	return ok
}

func (t *exactTimers) ids() []string {
	out := make([]string, 0, len(t.timers))
	for id := range t.timers {
		out = append(out, id)
	}
	return out
}
