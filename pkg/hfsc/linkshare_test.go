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
package hfsc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scionproto/hfsc/pkg/hfsc/clock"
	"github.com/scionproto/hfsc/pkg/hfsc/curve"
	"github.com/scionproto/hfsc/pkg/log"
)

type sizedPacket int

func (p sizedPacket) Len() int {
	return int(p)
}

// byteScheduler returns a scheduler with a microsecond clock and a root
// class that is served with 8 Mbit/s, that is one byte per tick.
func byteScheduler(t *testing.T) (*Scheduler, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(1_000_000)
	s, err := New(clk, WithLogger(log.Discard()))
	require.NoError(t, err)
	_, err = s.CreateClass(ClassConfig{
		Name:      "root",
		LinkShare: &curve.ServiceCurve{M2: 8_000_000},
	})
	require.NoError(t, err)
	return s, clk
}

func leafClass(t *testing.T, s *Scheduler, name string, ls, ul uint64) *class {
	t.Helper()
	cfg := ClassConfig{
		Name:       name,
		Parent:     s.root.id,
		LinkShare:  &curve.ServiceCurve{M2: ls},
		QueueLimit: 100,
	}
	if ul != 0 {
		cfg.UpperLimit = &curve.ServiceCurve{M2: ul}
	}
	id, err := s.CreateClass(cfg)
	require.NoError(t, err)
	return s.classes[id]
}

func enqueue(t *testing.T, s *Scheduler, cl *class, n, size int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, s.Enqueue(cl.id, sizedPacket(size)))
	}
}

func dequeue(t *testing.T, s *Scheduler, now uint64) *class {
	t.Helper()
	cl, _ := s.choose(now)
	require.NotNil(t, cl)
	_, ok := s.Dequeue(now)
	require.True(t, ok)
	return cl
}

func TestInitVFNewPeriod(t *testing.T) {
	s, _ := byteScheduler(t)
	a := leafClass(t, s, "a", 8_000_000, 0)
	b := leafClass(t, s, "b", 8_000_000, 0)

	enqueue(t, s, a, 2, 1000)
	dequeue(t, s, 0)
	assert.Equal(t, uint64(1000), a.vt)
	dequeue(t, s, 0)
	assert.Zero(t, a.nactive)
	assert.Equal(t, uint64(1000), s.root.cvtmax)

	// b starts a new backlog period of the root. The old virtual times are
	// moved out of the way.
	enqueue(t, s, b, 2, 1000)
	assert.Equal(t, uint64(1000), a.vtoff)
	assert.Zero(t, b.vt)
	assert.Zero(t, b.vtoff)
	assert.Zero(t, s.root.cvtmax)
	assert.Zero(t, s.root.cvtmin)

	assert.Equal(t, b, dequeue(t, s, 0))
	assert.Equal(t, uint64(1000), b.vt)

	// a joins the running period at the largest vt.
	enqueue(t, s, a, 1, 1000)
	assert.Equal(t, uint64(1000), a.vt)
	assert.Zero(t, a.vtoff)
	assert.Equal(t, uint64(1000), a.virtual.X)
	assert.Equal(t, []ClassID{b.id, a.id}, activeOrder(&s.root.active))
}

func TestInitVFMidpoint(t *testing.T) {
	s, _ := byteScheduler(t)
	a := leafClass(t, s, "a", 4_000_000, 0)
	b := leafClass(t, s, "b", 2_000_000, 0)
	c := leafClass(t, s, "c", 2_000_000, 0)

	enqueue(t, s, a, 10, 500)
	enqueue(t, s, b, 10, 500)
	for i := 0; i < 6; i++ {
		dequeue(t, s, 0)
	}
	cvtmin, maxVT := s.root.cvtmin, s.root.active.last().vt
	require.NotZero(t, cvtmin)
	require.Less(t, cvtmin, maxVT)

	enqueue(t, s, c, 1, 500)
	assert.Equal(t, (cvtmin+maxVT)/2, c.vt)
	assert.Equal(t, 1, c.nactive)
	assert.Equal(t, uint64(1), c.vtperiod)
}

func TestUpdateVFCatchUp(t *testing.T) {
	s, _ := byteScheduler(t)
	limited := leafClass(t, s, "limited", 8_000_000, 800_000)
	bulk := leafClass(t, s, "bulk", 8_000_000, 0)

	enqueue(t, s, limited, 20, 100)
	enqueue(t, s, bulk, 50, 100)
	var now uint64
	for i := 0; i < 40; i++ {
		dequeue(t, s, now)
		now += 100
	}
	// The limited class did not fit most of the time and fell behind the
	// virtual time of its sibling.
	assert.Positive(t, limited.vtadj)
	assert.Less(t, limited.total, bulk.total)
	assert.Greater(t, limited.f, uint64(0))
}

func TestNestedActivation(t *testing.T) {
	s, clk := byteScheduler(t)
	id, err := s.CreateClass(ClassConfig{
		Name:      "inner",
		Parent:    s.root.id,
		LinkShare: &curve.ServiceCurve{M2: 4_000_000},
	})
	require.NoError(t, err)
	inner := s.classes[id]
	mk := func(name string) *class {
		id, err := s.CreateClass(ClassConfig{
			Name:      name,
			Parent:    inner.id,
			LinkShare: &curve.ServiceCurve{M2: 2_000_000},
		})
		require.NoError(t, err)
		return s.classes[id]
	}
	x, y := mk("x"), mk("y")

	enqueue(t, s, x, 1, 100)
	enqueue(t, s, y, 2, 100)
	assert.Equal(t, 2, inner.nactive)
	assert.Equal(t, 1, s.root.active.len)
	assert.Equal(t, 2, inner.active.len)

	for i := 0; i < 3; i++ {
		dequeue(t, s, clk.Now())
	}
	assert.Zero(t, inner.nactive)
	assert.Zero(t, s.root.active.len)
	assert.Equal(t, uint64(300), inner.total)
	assert.Equal(t, uint64(300), s.root.total)
	assert.Equal(t, inner.vt, inner.parent.cvtmax)
}
