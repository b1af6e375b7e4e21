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

// Package clock provides the tick sources consumed by the scheduler. A tick
// source is a monotonic counter together with its frequency in ticks per
// second.
package clock

import (
	"time"

	"github.com/aristanetworks/goarista/monotime"
)

// Source is a monotonic tick counter.
type Source interface {
	// Now returns the current tick count. It never decreases.
	Now() uint64
	// Frequency returns the number of ticks per second. It is constant.
	Frequency() uint64
}

// System is the monotonic system clock with nanosecond ticks.
type System struct{}

// Now returns the monotonic time in nanoseconds.
func (System) Now() uint64 {
	return monotime.Now()
}

// Frequency returns 1e9.
func (System) Frequency() uint64 {
	return uint64(time.Second)
}

// Manual is a clock that only moves when told to. It is used by tests and by
// the simulator. The zero value is not usable, use NewManual.
type Manual struct {
	now  uint64
	freq uint64
}

// NewManual creates a manual clock at tick 0 with the given frequency.
func NewManual(freq uint64) *Manual {
	if freq == 0 {
		panic("clock frequency must not be zero")
	}
	return &Manual{freq: freq}
}

// Now returns the current tick.
func (m *Manual) Now() uint64 {
	return m.now
}

// Frequency returns the configured frequency.
func (m *Manual) Frequency() uint64 {
	return m.freq
}

// Advance moves the clock forward by d and returns the new tick.
func (m *Manual) Advance(d time.Duration) uint64 {
	m.now += Ticks(m.freq, d)
	return m.now
}

// AdvanceTicks moves the clock forward by n ticks and returns the new tick.
func (m *Manual) AdvanceTicks(n uint64) uint64 {
	m.now += n
	return m.now
}

// Set moves the clock to tick t. Panics if t is in the past.
func (m *Manual) Set(t uint64) {
	if t < m.now {
		panic("manual clock moved backwards")
	}
	m.now = t
}

// Ticks converts d to ticks at the given frequency, rounding down.
// Negative durations yield 0.
func Ticks(freq uint64, d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	sec := uint64(d / time.Second)
	rem := uint64(d % time.Second)
	return sec*freq + rem*freq/uint64(time.Second)
}

// Duration converts ticks to a duration at the given frequency, rounding
// down.
func Duration(freq uint64, ticks uint64) time.Duration {
	sec := ticks / freq
	rem := ticks % freq
	return time.Duration(sec)*time.Second + time.Duration(rem*uint64(time.Second)/freq)
}
