// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics provides small Counter/Gauge/Averager primitives backed
// by Prometheus, plus a per-session Registry, so runtime can surface the
// error-kind counters and PresenceVector/DegradationLevel gauges described
// in §7 and §3 of the spec without every call site touching Prometheus
// types directly.
package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter tracks a monotonically-informative count (it can still be
// adjusted by a signed delta; callers needing strict monotonicity enforce
// that themselves, e.g. replay-rejected counters only ever Inc).
type Counter interface {
	Inc()
	Add(delta int64)
	Read() int64
}

type counter struct {
	mu   sync.RWMutex
	val  int64
	prom prometheus.Counter
}

// NewCounter returns a Counter optionally backed by a registered
// Prometheus counter. reg may be nil, in which case the counter is purely
// in-process (used by tests).
func NewCounter(name, help string, reg prometheus.Registerer) Counter {
	c := &counter{}
	if reg != nil {
		pc := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
		if err := reg.Register(pc); err == nil {
			c.prom = pc
		}
	}
	return c
}

func (c *counter) Inc() { c.Add(1) }

func (c *counter) Add(delta int64) {
	c.mu.Lock()
	c.val += delta
	c.mu.Unlock()
	if c.prom != nil && delta > 0 {
		c.prom.Add(float64(delta))
	}
}

func (c *counter) Read() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

// Gauge tracks a value that moves freely up and down, e.g. a
// PresenceVector component or the current DegradationLevel.
type Gauge interface {
	Set(value float64)
	Add(delta float64)
	Read() float64
}

type gauge struct {
	mu   sync.RWMutex
	val  float64
	prom prometheus.Gauge
}

// NewGauge returns a Gauge optionally backed by a registered Prometheus
// gauge.
func NewGauge(name, help string, reg prometheus.Registerer) Gauge {
	g := &gauge{}
	if reg != nil {
		pg := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
		if err := reg.Register(pg); err == nil {
			g.prom = pg
		}
	}
	return g
}

func (g *gauge) Set(value float64) {
	g.mu.Lock()
	g.val = value
	g.mu.Unlock()
	if g.prom != nil {
		g.prom.Set(value)
	}
}

func (g *gauge) Add(delta float64) {
	g.mu.Lock()
	g.val += delta
	g.mu.Unlock()
	if g.prom != nil {
		g.prom.Add(delta)
	}
}

func (g *gauge) Read() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.val
}

// Averager tracks a running mean, used for latency/jitter observability
// independent of the network model's own EMA state.
type Averager interface {
	Observe(value float64)
	Read() float64
}

type averager struct {
	mu    sync.RWMutex
	sum   float64
	count float64
}

// NewAverager returns a process-local running-mean tracker.
func NewAverager() Averager {
	return &averager{}
}

func (a *averager) Observe(value float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sum += value
	a.count++
}

func (a *averager) Read() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.count == 0 {
		return 0
	}
	return a.sum / a.count
}

// Registry is a named collection of counters, gauges, and averagers
// scoped to one session.
type Registry struct {
	reg prometheus.Registerer

	mu        sync.RWMutex
	counters  map[string]Counter
	gauges    map[string]Gauge
	averagers map[string]Averager
}

// NewRegistry returns a Registry. reg may be nil for a purely in-process
// registry (used by tests and by sessions that opt out of Prometheus).
func NewRegistry(reg prometheus.Registerer) *Registry {
	return &Registry{
		reg:       reg,
		counters:  make(map[string]Counter),
		gauges:    make(map[string]Gauge),
		averagers: make(map[string]Averager),
	}
}

// Counter returns the named counter, creating it on first use.
func (r *Registry) Counter(name, help string) Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[name]; ok {
		return c
	}
	c := NewCounter(name, help, r.reg)
	r.counters[name] = c
	return c
}

// Gauge returns the named gauge, creating it on first use.
func (r *Registry) Gauge(name, help string) Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := NewGauge(name, help, r.reg)
	r.gauges[name] = g
	return g
}

// Averager returns the named averager, creating it on first use.
func (r *Registry) Averager(name string) Averager {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.averagers[name]; ok {
		return a
	}
	a := NewAverager()
	r.averagers[name] = a
	return a
}

// MustGauge returns an existing gauge or panics; used in internal wiring
// where the gauge name is a compile-time constant and a miss indicates a
// programming error, not bad input.
func (r *Registry) MustGauge(name string) Gauge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gauges[name]
	if !ok {
		panic(fmt.Sprintf("metrics: gauge %q not registered", name))
	}
	return g
}
