package chat

import (
	"sync"
	"time"
)

// Pacing constants for the typewriter release. They affect rendering
// smoothness only; correctness never depends on them.
const (
	releaseInterval = 30 * time.Millisecond
	releaseChunk    = 4 // runes per tick
)

// Ticker is the injectable tick source driving the release buffer, so
// tests can advance virtual time instead of sleeping.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc builds a Ticker for the given period.
type TickerFunc func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (rt realTicker) C() <-chan time.Time { return rt.t.C }
func (rt realTicker) Stop()               { rt.t.Stop() }

func newRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// releaseBuffer holds streamed text back and emits it a few runes per
// tick. One buffer serves exactly one in-flight assistant message.
type releaseBuffer struct {
	mu      sync.Mutex
	backlog []rune
	stopped bool

	tick   Ticker
	stopCh chan struct{}
	doneCh chan struct{}
	emit   func(delta string)
}

func newReleaseBuffer(tf TickerFunc, emit func(string)) *releaseBuffer {
	if tf == nil {
		tf = newRealTicker
	}
	b := &releaseBuffer{
		tick:   tf(releaseInterval),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		emit:   emit,
	}
	go b.run()
	return b
}

func (b *releaseBuffer) run() {
	defer close(b.doneCh)
	for {
		select {
		case <-b.tick.C():
			b.mu.Lock()
			n := releaseChunk
			if n > len(b.backlog) {
				n = len(b.backlog)
			}
			if n == 0 {
				b.mu.Unlock()
				continue
			}
			out := string(b.backlog[:n])
			b.backlog = b.backlog[n:]
			b.mu.Unlock()
			b.emit(out)
		case <-b.stopCh:
			return
		}
	}
}

func (b *releaseBuffer) Append(s string) {
	b.mu.Lock()
	b.backlog = append(b.backlog, []rune(s)...)
	b.mu.Unlock()
}

// Stop halts the tick goroutine and returns whatever had not yet been
// released. The caller appends the remainder itself; that is the only
// path content takes after a terminal event, so nothing is dropped.
// Safe to call more than once.
func (b *releaseBuffer) Stop() string {
	b.mu.Lock()
	if !b.stopped {
		b.stopped = true
		close(b.stopCh)
	}
	b.mu.Unlock()

	<-b.doneCh
	b.tick.Stop()

	b.mu.Lock()
	rest := string(b.backlog)
	b.backlog = nil
	b.mu.Unlock()
	return rest
}
