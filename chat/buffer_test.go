package chat

import (
	"sync"
	"testing"
	"time"
)

type emitRec struct {
	mu     sync.Mutex
	chunks []string
}

func (e *emitRec) emit(s string) {
	e.mu.Lock()
	e.chunks = append(e.chunks, s)
	e.mu.Unlock()
}

func (e *emitRec) joined() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := ""
	for _, c := range e.chunks {
		out += c
	}
	return out
}

func (e *emitRec) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.chunks)
}

func TestBufferReleasesFixedChunks(t *testing.T) {
	tick := newFakeTicker()
	rec := &emitRec{}
	buf := newReleaseBuffer(tick.factory(), rec.emit)
	defer buf.Stop()

	buf.Append("abcdefgh")

	tick.ch <- time.Now()
	waitFor(t, "first chunk", func() bool { return rec.count() >= 1 })
	tick.ch <- time.Now()
	waitFor(t, "second chunk", func() bool { return rec.count() >= 2 })

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.chunks[0] != "abcd" || rec.chunks[1] != "efgh" {
		t.Fatalf("unexpected release slices: %q", rec.chunks)
	}
}

func TestBufferStopReturnsRemainder(t *testing.T) {
	tick := newFakeTicker()
	rec := &emitRec{}
	buf := newReleaseBuffer(tick.factory(), rec.emit)

	buf.Append("hello world")
	tick.ch <- time.Now()
	waitFor(t, "one release", func() bool { return rec.count() >= 1 })

	rest := buf.Stop()
	if got := rec.joined() + rest; got != "hello world" {
		t.Fatalf("released + remainder must equal input, got %q", got)
	}
}

func TestBufferStopIdempotent(t *testing.T) {
	buf := newReleaseBuffer(newFakeTicker().factory(), func(string) {})
	buf.Append("leftover")

	if rest := buf.Stop(); rest != "leftover" {
		t.Fatalf("first Stop should drain the backlog, got %q", rest)
	}
	if rest := buf.Stop(); rest != "" {
		t.Fatalf("second Stop must return nothing, got %q", rest)
	}
}

func TestBufferIdleTickEmitsNothing(t *testing.T) {
	tick := newFakeTicker()
	rec := &emitRec{}
	buf := newReleaseBuffer(tick.factory(), rec.emit)
	defer buf.Stop()

	tick.ch <- time.Now()
	buf.Append("late")
	tick.ch <- time.Now()
	waitFor(t, "release after append", func() bool { return rec.count() >= 1 })

	if rec.count() != 1 || rec.joined() != "late" {
		t.Fatalf("idle tick must not emit, got %q", rec.chunks)
	}
}

func TestBufferHandlesMultiByteRunes(t *testing.T) {
	tick := newFakeTicker()
	rec := &emitRec{}
	buf := newReleaseBuffer(tick.factory(), rec.emit)

	buf.Append("日本語のテスト")
	tick.ch <- time.Now()
	waitFor(t, "rune chunk", func() bool { return rec.count() >= 1 })

	rec.mu.Lock()
	first := rec.chunks[0]
	rec.mu.Unlock()
	if first != "日本語の" {
		t.Fatalf("release must split on rune boundaries, got %q", first)
	}
	if got := rec.joined() + buf.Stop(); got != "日本語のテスト" {
		t.Fatalf("lost runes: %q", got)
	}
}
