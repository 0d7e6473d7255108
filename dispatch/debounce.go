package dispatch

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period for field-edit remote writes.
const DefaultDebounce = 300 * time.Millisecond

// debouncer coalesces rapid calls per key into one trailing invocation.
// Every call advances the key's token; the invocation receives the token it
// was scheduled with, so work that completes after a newer edit superseded
// it can recognize itself as stale and discard its result.
type debouncer struct {
	delay time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	tokens map[string]uint64
}

func newDebouncer(delay time.Duration) *debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
		tokens: make(map[string]uint64),
	}
}

// Do schedules fn to run after the quiet period. An earlier pending fn for
// the same key is cancelled; only the last caller within the window wins.
func (d *debouncer) Do(key string, fn func(token uint64)) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.tokens[key]++
	token := d.tokens[key]

	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A timer that fired concurrently with a superseding Do clears
		// only its own entry, never the successor's.
		if d.timers[key] == t {
			delete(d.timers, key)
		}
		d.mu.Unlock()
		fn(token)
	})
	d.timers[key] = t
	return token
}

// Current reports whether token is still the newest for key.
func (d *debouncer) Current(key string, token uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tokens[key] == token
}

// Stop cancels every pending invocation. Tokens keep advancing so late
// completions still read as stale.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
