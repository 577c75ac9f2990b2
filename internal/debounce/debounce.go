// Package debounce runs the last of a burst of calls after a quiet period, one burst per key.
package debounce

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc matches time.AfterFunc; tests substitute a manual clock.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type pending struct {
	timer Timer
	fn    func()
	gen   uint64
}

// Debouncer holds at most one pending call per key. Scheduling again replaces the call and restarts the delay.
type Debouncer struct {
	delay     time.Duration
	afterFunc AfterFunc

	mu      sync.Mutex
	pending map[string]*pending
	running map[string]chan struct{}
	gen     uint64
	stopped bool

	inflight sync.WaitGroup
}

func New(delay time.Duration) *Debouncer {
	return NewWithAfterFunc(delay, realAfterFunc)
}

func NewWithAfterFunc(delay time.Duration, afterFunc AfterFunc) *Debouncer {
	return &Debouncer{
		delay:     delay,
		afterFunc: afterFunc,
		pending:   make(map[string]*pending),
		running:   make(map[string]chan struct{}),
	}
}

func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Schedule arranges for fn to run after the delay unless replaced, flushed or cancelled first.
// It returns false once the debouncer is stopped.
func (d *Debouncer) Schedule(key string, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}

	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
	}

	d.gen++
	gen := d.gen
	p := &pending{fn: fn, gen: gen}
	p.timer = d.afterFunc(d.delay, func() { d.fire(key, gen) })
	d.pending[key] = p
	return true
}

// fire runs the call for key if it is still the one scheduled under gen.
// A timer that lost the race with Schedule or Cancel sees a newer generation and does nothing.
func (d *Debouncer) fire(key string, gen uint64) {
	d.mu.Lock()
	p, ok := d.pending[key]
	if !ok || p.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	done := d.begin(key)
	d.mu.Unlock()

	d.run(key, done, p.fn)
}

// begin marks a call for key as running. d.mu must be held.
func (d *Debouncer) begin(key string) chan struct{} {
	done := make(chan struct{})
	d.running[key] = done
	d.inflight.Add(1)
	return done
}

func (d *Debouncer) run(key string, done chan struct{}, fn func()) {
	defer func() {
		d.mu.Lock()
		if d.running[key] == done {
			delete(d.running, key)
		}
		d.mu.Unlock()
		close(done)
		d.inflight.Done()
	}()
	fn()
}

// Wait blocks until the call running for key, if any, has returned.
func (d *Debouncer) Wait(key string) {
	d.mu.Lock()
	done, ok := d.running[key]
	d.mu.Unlock()
	if ok {
		<-done
	}
}

// Flush runs the pending call for key now, on the caller's goroutine. It reports whether one was pending.
// When nothing is pending but a timer-fired call is still running, Flush waits for it.
func (d *Debouncer) Flush(key string) bool {
	d.mu.Lock()
	p, ok := d.pending[key]
	if !ok {
		d.mu.Unlock()
		d.Wait(key)
		return false
	}
	p.timer.Stop()
	delete(d.pending, key)
	done := d.begin(key)
	d.mu.Unlock()

	d.run(key, done, p.fn)
	return true
}

// Cancel drops the pending call for key without running it.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[key]
	if ok {
		p.timer.Stop()
		delete(d.pending, key)
	}
	return ok
}

func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

func (d *Debouncer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

type call struct {
	key  string
	done chan struct{}
	fn   func()
}

// FlushAll runs every pending call and returns how many ran.
func (d *Debouncer) FlushAll() int {
	d.mu.Lock()
	calls := make([]call, 0, len(d.pending))
	for key, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, key)
		calls = append(calls, call{key: key, done: d.begin(key), fn: p.fn})
	}
	d.mu.Unlock()

	for _, c := range calls {
		d.run(c.key, c.done, c.fn)
	}
	return len(calls)
}

// Stop flushes pending calls, waits for calls already running and refuses new ones.
// Used on shutdown so queued writes finish before their stores are closed.
func (d *Debouncer) Stop() int {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	n := d.FlushAll()
	d.inflight.Wait()
	return n
}
