// Copyright 2026 Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics provides the metric interfaces used by the scheduler and
// its tooling, a prometheus backed implementation and fakes for tests.
//
// All helpers accept nil metrics, so optional metrics do not need to be
// guarded at the call site:
//
//	metrics.CounterInc(m.Sent) // no-op if m.Sent is nil
package metrics

// Counter describes a metric that accumulates values monotonically.
type Counter interface {
	With(labelValues ...string) Counter
	Add(delta float64)
}

// Gauge describes a metric that takes specific values over time.
type Gauge interface {
	With(labelValues ...string) Gauge
	Set(value float64)
	Add(delta float64)
}

// CounterWith returns the counter with the label values applied. Returns nil
// if c is nil.
func CounterWith(c Counter, labelValues ...string) Counter {
	if c == nil {
		return nil
	}
	return c.With(labelValues...)
}

// CounterInc increases c by 1.
func CounterInc(c Counter) {
	CounterAdd(c, 1)
}

// CounterAdd increases c by v.
func CounterAdd(c Counter, v float64) {
	if c != nil {
		c.Add(v)
	}
}

// GaugeWith returns the gauge with the label values applied. Returns nil if g
// is nil.
func GaugeWith(g Gauge, labelValues ...string) Gauge {
	if g == nil {
		return nil
	}
	return g.With(labelValues...)
}

// GaugeSet sets g to v.
func GaugeSet(g Gauge, v float64) {
	if g != nil {
		g.Set(v)
	}
}

// GaugeAdd increases g by v.
func GaugeAdd(g Gauge, v float64) {
	if g != nil {
		g.Add(v)
	}
}
