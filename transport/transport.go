// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package transport defines the pub/sub broker contract every node driver
// sends and receives BiddingMessages through (§6, §9's Design Note: "no
// process-wide mutable singletons" extends to the transport, represented
// as an interface with a concrete broker implementation behind it). The
// default, always-built implementation is InMemory; an optional ZeroMQ
// implementation is available behind the "zmq" build tag.
package transport

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by Send/Subscribe once the transport has been
// closed.
var ErrClosed = errors.New("transport: closed")

// Transport is the contract the node driver uses to exchange wire bytes
// with its neighborhood and to arm/cancel its two termination timers
// (§4.7, §5): per-destination FIFO delivery, at-least-once semantics, one
// logical queue per agent name.
type Transport interface {
	// Send delivers payload to destination's queue. Implementations may
	// return before the peer has read it; delivery is at-least-once.
	Send(ctx context.Context, destination string, payload []byte) error

	// Subscribe returns this agent's inbound queue as a receive-only
	// channel of raw payloads, in FIFO order per sender-destination pair.
	// InMemory closes the channel when the transport is closed; ZMQ does
	// not.
	Subscribe(ctx context.Context, self string) (<-chan []byte, error)

	// SetTimer arms a named one-shot timer that fires fn after d,
	// replacing any previously armed timer under the same name.
	SetTimer(name string, d time.Duration, fn func())

	// CancelTimer disarms a previously set timer by name; a no-op if it
	// was never set or already fired.
	CancelTimer(name string)

	// Close releases any held resources (queues, sockets, timers).
	Close() error
}

// InMemory is the default Transport: one buffered Go channel per
// destination agent name, and a map of time.Timer for the named timers.
// It never suspends on Send beyond the channel buffer filling up.
type InMemory struct {
	mu      sync.Mutex
	queues  map[string]chan []byte
	timers  map[string]*time.Timer
	closed  bool
	bufSize int
}

// NewInMemory returns an InMemory transport; bufSize bounds each
// destination's queue depth (coalescing/backpressure is the node driver's
// concern, not the transport's).
func NewInMemory(bufSize int) *InMemory {
	if bufSize <= 0 {
		bufSize = 64
	}
	return &InMemory{
		queues:  make(map[string]chan []byte),
		timers:  make(map[string]*time.Timer),
		bufSize: bufSize,
	}
}

func (t *InMemory) queueFor(name string) chan []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	q, ok := t.queues[name]
	if !ok {
		q = make(chan []byte, t.bufSize)
		t.queues[name] = q
	}
	return q
}

// Send delivers payload to destination's queue, or blocks until ctx is
// done if the queue is full.
func (t *InMemory) Send(ctx context.Context, destination string, payload []byte) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	t.mu.Unlock()

	q := t.queueFor(destination)
	select {
	case q <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns self's inbound queue.
func (t *InMemory) Subscribe(ctx context.Context, self string) (<-chan []byte, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrClosed
	}
	t.mu.Unlock()
	return t.queueFor(self), nil
}

// SetTimer arms a named one-shot timer, replacing any prior one under the
// same name.
func (t *InMemory) SetTimer(name string, d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.timers[name]; ok {
		existing.Stop()
	}
	t.timers[name] = time.AfterFunc(d, fn)
}

// CancelTimer disarms a named timer.
func (t *InMemory) CancelTimer(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.timers[name]; ok {
		existing.Stop()
		delete(t.timers, name)
	}
}

// Close stops every armed timer and closes every destination queue.
func (t *InMemory) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	for _, timer := range t.timers {
		timer.Stop()
	}
	for _, q := range t.queues {
		close(q)
	}
	return nil
}
