// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

//go:build zmq

package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	zmq "github.com/pebbe/zmq4"
)

// ZMQ is a Transport backed by a ZeroMQ PUB/SUB pair: this agent publishes
// on pubEndpoint and subscribes, topic-filtered on its own name, to every
// peer's PUB socket reachable through subEndpoints -- one queue per agent
// name, exactly as §6 specifies, with the broker/topology choice left
// external to this package.
type ZMQ struct {
	mu     sync.Mutex
	pub    *zmq.Socket
	sub    *zmq.Socket
	self   string
	timers map[string]*time.Timer
	inbox  chan []byte
	done   chan struct{}
}

// NewZMQ binds a PUB socket at pubEndpoint and connects a SUB socket to
// every address in subEndpoints, subscribed to self's topic.
func NewZMQ(self, pubEndpoint string, subEndpoints []string) (Transport, error) {
	pub, err := zmq.NewSocket(zmq.PUB)
	if err != nil {
		return nil, fmt.Errorf("transport: new pub socket: %w", err)
	}
	if err := pub.Bind(pubEndpoint); err != nil {
		pub.Close()
		return nil, fmt.Errorf("transport: bind pub socket: %w", err)
	}

	sub, err := zmq.NewSocket(zmq.SUB)
	if err != nil {
		pub.Close()
		return nil, fmt.Errorf("transport: new sub socket: %w", err)
	}
	for _, addr := range subEndpoints {
		if err := sub.Connect(addr); err != nil {
			pub.Close()
			sub.Close()
			return nil, fmt.Errorf("transport: connect sub socket to %s: %w", addr, err)
		}
	}
	if err := sub.SetSubscribe(self); err != nil {
		pub.Close()
		sub.Close()
		return nil, fmt.Errorf("transport: subscribe topic: %w", err)
	}

	t := &ZMQ{
		pub:    pub,
		sub:    sub,
		self:   self,
		timers: make(map[string]*time.Timer),
		inbox:  make(chan []byte, 64),
		done:   make(chan struct{}),
	}
	go t.pump()
	return t, nil
}

func (t *ZMQ) pump() {
	t.sub.SetRcvtimeo(200 * time.Millisecond)
	for {
		select {
		case <-t.done:
			return
		default:
		}
		parts, err := t.sub.RecvMessageBytes(0)
		if err != nil {
			continue // timeout or transient error, retry
		}
		if len(parts) < 2 {
			continue
		}
		select {
		case t.inbox <- parts[1]:
		case <-t.done:
			return
		}
	}
}

// Send publishes payload on the topic=destination envelope; every peer
// subscribed to that topic receives it.
func (t *ZMQ) Send(ctx context.Context, destination string, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.pub.SendMessage(destination, payload)
	return err
}

// Subscribe returns this agent's inbound payload channel. Close stops
// the pump feeding it but does not close the channel.
func (t *ZMQ) Subscribe(ctx context.Context, self string) (<-chan []byte, error) {
	return t.inbox, nil
}

// SetTimer arms a named one-shot timer.
func (t *ZMQ) SetTimer(name string, d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.timers[name]; ok {
		existing.Stop()
	}
	t.timers[name] = time.AfterFunc(d, fn)
}

// CancelTimer disarms a named timer.
func (t *ZMQ) CancelTimer(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.timers[name]; ok {
		existing.Stop()
		delete(t.timers, name)
	}
}

// Close stops the receive pump and both sockets.
func (t *ZMQ) Close() error {
	close(t.done)
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, timer := range t.timers {
		timer.Stop()
	}
	t.sub.Close()
	return t.pub.Close()
}
