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
package metrics

import (
	"sort"
	"strings"
	"sync"
)

// store holds the values of a fake metric and of all its labeled children.
type store struct {
	mtx    sync.Mutex
	values map[string]float64
}

func newStore() *store {
	return &store{values: make(map[string]float64)}
}

func (s *store) add(key string, delta float64, canBeNegative bool) {
	if !canBeNegative && delta < 0 {
		panic("counter increment value is < 0")
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.values[key] += delta
}

func (s *store) set(key string, v float64) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.values[key] = v
}

func (s *store) value(key string) float64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.values[key]
}

// labelKey canonicalizes the label pairs, the order of With calls does not
// matter.
func labelKey(lvs labelValues) string {
	pairs := make([]string, 0, len(lvs)/2)
	for i := 0; i+1 < len(lvs); i += 2 {
		pairs = append(pairs, lvs[i]+"="+lvs[i+1])
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

// TestCounter implements a counter for use in tests. Children created with
// With share the storage of their parent, so the test can inspect the value
// of every label combination from the original counter.
type TestCounter struct {
	store *store
	lvs   labelValues
}

// NewTestCounter creates a new counter for use in tests.
func NewTestCounter() *TestCounter {
	return &TestCounter{store: newStore()}
}

// With returns the child counter with the additional labels.
func (c *TestCounter) With(pairs ...string) Counter {
	return &TestCounter{store: c.store, lvs: c.lvs.with(pairs...)}
}

// Add increases the counter by delta. Panics if delta is negative.
func (c *TestCounter) Add(delta float64) {
	c.store.add(labelKey(c.lvs), delta, false)
}

// Value returns the value of the child with exactly the given labels, on
// top of the labels of c.
func (c *TestCounter) Value(pairs ...string) float64 {
	return c.store.value(labelKey(c.lvs.with(pairs...)))
}

// CounterValue extracts the value out of a TestCounter. If the argument is not
// a *TestCounter, CounterValue will panic.
func CounterValue(c Counter) float64 {
	return c.(*TestCounter).Value()
}

// TestGauge implements a gauge for use in tests.
type TestGauge struct {
	store *store
	lvs   labelValues
}

// NewTestGauge creates a new gauge for use in tests.
func NewTestGauge() *TestGauge {
	return &TestGauge{store: newStore()}
}

// With returns the child gauge with the additional labels.
func (g *TestGauge) With(pairs ...string) Gauge {
	return &TestGauge{store: g.store, lvs: g.lvs.with(pairs...)}
}

// Set sets the gauge to v.
func (g *TestGauge) Set(v float64) {
	g.store.set(labelKey(g.lvs), v)
}

// Add increases the gauge by delta. The delta can be negative.
func (g *TestGauge) Add(delta float64) {
	g.store.add(labelKey(g.lvs), delta, true)
}

// Value returns the value of the child with exactly the given labels, on
// top of the labels of g.
func (g *TestGauge) Value(pairs ...string) float64 {
	return g.store.value(labelKey(g.lvs.with(pairs...)))
}

// GaugeValue extracts the value out of a TestGauge. If the argument is not a
// *TestGauge, GaugeValue will panic.
func GaugeValue(g Gauge) float64 {
	return g.(*TestGauge).Value()
}
