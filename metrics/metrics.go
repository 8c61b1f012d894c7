// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics wraps a prometheus.Registerer with the small set of
// counter/gauge/averager primitives the node driver reports through,
// namespaced per agent.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the per-agent metrics namespace. gatherer is non-nil only
// when the Registry owns its backing prometheus.Registry (see NewLocal).
type Registry struct {
	reg      prometheus.Registerer
	gatherer prometheus.Gatherer
	prefix   string
}

// New returns a Registry that registers every metric under reg, prefixing
// metric names with "rap_<agent>_".
func New(reg prometheus.Registerer, agent string) *Registry {
	return &Registry{reg: reg, prefix: "rap_" + agent + "_"}
}

// Register registers an arbitrary collector under this registry.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.reg.Register(c)
}

// Counter tracks a monotonically increasing count.
type Counter interface {
	Inc()
	Add(delta int64)
	Read() int64
}

type counter struct {
	mu   sync.RWMutex
	n    int64
	prom prometheus.Counter
}

// NewCounter registers and returns a new Counter.
func (r *Registry) NewCounter(name, help string) (Counter, error) {
	c := &counter{prom: prometheus.NewCounter(prometheus.CounterOpts{
		Name: r.prefix + name,
		Help: help,
	})}
	if err := r.reg.Register(c.prom); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *counter) Inc() { c.Add(1) }

func (c *counter) Add(delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n += delta
	c.prom.Add(float64(delta))
}

func (c *counter) Read() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.n
}

// Gauge tracks a value that can move up or down.
type Gauge interface {
	Set(value float64)
	Add(delta float64)
	Read() float64
}

type gauge struct {
	mu   sync.RWMutex
	v    float64
	prom prometheus.Gauge
}

// NewGauge registers and returns a new Gauge.
func (r *Registry) NewGauge(name, help string) (Gauge, error) {
	g := &gauge{prom: prometheus.NewGauge(prometheus.GaugeOpts{
		Name: r.prefix + name,
		Help: help,
	})}
	if err := r.reg.Register(g.prom); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *gauge) Set(v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.v = v
	g.prom.Set(v)
}

func (g *gauge) Add(delta float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.v += delta
	g.prom.Add(delta)
}

func (g *gauge) Read() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.v
}

// Averager tracks a running average, used for round-trip and
// time-to-agreement timing.
type Averager interface {
	Observe(value float64)
	Read() float64
}

type averager struct {
	mu        sync.RWMutex
	sum       float64
	count     float64
	promCount prometheus.Counter
	promSum   prometheus.Gauge
}

// NewAverager registers and returns a new Averager.
func (r *Registry) NewAverager(name, help string) (Averager, error) {
	a := &averager{
		promCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: r.prefix + name + "_count",
			Help: "total observations of " + help,
		}),
		promSum: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: r.prefix + name + "_sum",
			Help: "sum of " + help,
		}),
	}
	if err := r.reg.Register(a.promCount); err != nil {
		return nil, err
	}
	if err := r.reg.Register(a.promSum); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *averager) Observe(value float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sum += value
	a.count++
	a.promCount.Inc()
	a.promSum.Add(value)
}

func (a *averager) Read() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.count == 0 {
		return 0
	}
	return a.sum / a.count
}
