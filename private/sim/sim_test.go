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
package sim_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/scionproto/hfsc/pkg/hfsc"
	"github.com/scionproto/hfsc/pkg/hfsc/clock"
	"github.com/scionproto/hfsc/pkg/hfsc/curve"
	"github.com/scionproto/hfsc/pkg/log/testlog"
	"github.com/scionproto/hfsc/private/sim"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const linkRate = 10_000_000

type testSetup struct {
	sched *hfsc.Scheduler
	clk   *clock.Manual
	root  hfsc.ClassID
}

func newSetup(t *testing.T) testSetup {
	t.Helper()
	clk := clock.NewManual(uint64(time.Second))
	sched, err := hfsc.New(clk, hfsc.WithLogger(testlog.NewLogger(t)))
	require.NoError(t, err)
	root, err := sched.CreateClass(hfsc.ClassConfig{
		Name:      "root",
		LinkShare: &curve.ServiceCurve{M2: linkRate},
	})
	require.NoError(t, err)
	return testSetup{sched: sched, clk: clk, root: root}
}

func (s testSetup) class(t *testing.T, cfg hfsc.ClassConfig) hfsc.ClassID {
	t.Helper()
	cfg.Parent = s.root
	id, err := s.sched.CreateClass(cfg)
	require.NoError(t, err)
	return id
}

func (s testSetup) run(t *testing.T, d time.Duration, sources ...sim.Source) []sim.Result {
	t.Helper()
	simulator, err := sim.New(s.sched, s.clk, sim.Config{
		LinkRate: linkRate,
		Sources:  sources,
		Logger:   testlog.NewLogger(t),
	})
	require.NoError(t, err)
	results, err := simulator.Run(context.Background(), d)
	require.NoError(t, err)
	return results
}

func names(results []sim.Result) []string {
	var n []string
	for _, r := range results {
		n = append(n, r.Name)
	}
	return n
}

func TestFairShare(t *testing.T) {
	s := newSetup(t)
	a := s.class(t, hfsc.ClassConfig{Name: "a", LinkShare: &curve.ServiceCurve{M2: 5_000_000}})
	b := s.class(t, hfsc.ClassConfig{Name: "b", LinkShare: &curve.ServiceCurve{M2: 5_000_000}})

	results := s.run(t, time.Second,
		&sim.Backlogged{ClassID: a, Size: 1000},
		&sim.Backlogged{ClassID: b, Size: 1000},
	)
	if diff := cmp.Diff([]string{"a", "b"}, names(results)); diff != "" {
		t.Fatalf("unexpected classes (-want +got):\n%s", diff)
	}
	for _, r := range results {
		assert.InDelta(t, 5_000_000, r.Rate, 100_000, r.Name)
		assert.Zero(t, r.DroppedPackets, r.Name)
	}
}

func TestRealTimeDelay(t *testing.T) {
	s := newSetup(t)
	voice := s.class(t, hfsc.ClassConfig{
		Name:      "voice",
		RealTime:  &curve.ServiceCurve{M2: 1_000_000},
		LinkShare: &curve.ServiceCurve{M2: 1_000_000},
	})
	bulk := s.class(t, hfsc.ClassConfig{
		Name:      "bulk",
		LinkShare: &curve.ServiceCurve{M2: 9_000_000},
	})

	results := s.run(t, time.Second,
		&sim.CBR{ClassID: voice, Size: 200, Rate: 500_000},
		&sim.Backlogged{ClassID: bulk, Size: 1500, Backlog: 10},
	)
	require.Len(t, results, 2)
	v, bk := results[0], results[1]
	assert.Equal(t, "voice", v.Name)
	assert.InDelta(t, 500_000, v.Rate, 5_000)
	assert.Zero(t, v.DroppedPackets)
	// At most one bulk packet is in transmission when a voice packet
	// arrives.
	assert.LessOrEqual(t, v.MaxDelay, 2*time.Millisecond)
	assert.InDelta(t, 9_500_000, bk.Rate, 100_000)
}

func TestUpperLimit(t *testing.T) {
	s := newSetup(t)
	capped := s.class(t, hfsc.ClassConfig{
		Name:       "capped",
		LinkShare:  &curve.ServiceCurve{M2: linkRate},
		UpperLimit: &curve.ServiceCurve{M2: 2_000_000},
	})
	results := s.run(t, time.Second, &sim.Backlogged{ClassID: capped, Size: 1000})
	require.Len(t, results, 1)
	assert.LessOrEqual(t, results[0].Rate, uint64(2_020_000))
	assert.GreaterOrEqual(t, results[0].Rate, uint64(1_900_000))
}

func TestShapedSource(t *testing.T) {
	s := newSetup(t)
	id := s.class(t, hfsc.ClassConfig{
		Name:       "shaped",
		LinkShare:  &curve.ServiceCurve{M2: linkRate},
		QueueLimit: 100,
	})
	results := s.run(t, time.Second,
		&sim.Shaped{ClassID: id, Size: 1000, Rate: 1_000_000, Burst: 10_000})
	require.Len(t, results, 1)
	// The burst plus one second at the token rate.
	assert.InDelta(t, 1_080_000, results[0].Rate, 20_000)
	assert.Zero(t, results[0].DroppedPackets)
}

func TestDrops(t *testing.T) {
	s := newSetup(t)
	id := s.class(t, hfsc.ClassConfig{
		Name:       "small",
		LinkShare:  &curve.ServiceCurve{M2: linkRate},
		QueueLimit: 5,
	})
	// Twice the link rate.
	results := s.run(t, 100*time.Millisecond,
		&sim.CBR{ClassID: id, Size: 1000, Rate: 2 * linkRate})
	require.Len(t, results, 1)
	assert.Positive(t, results[0].DroppedPackets)
	assert.InDelta(t, linkRate, results[0].Rate, linkRate/20)
}

func TestNew(t *testing.T) {
	s := newSetup(t)
	_, err := sim.New(s.sched, s.clk, sim.Config{})
	assert.Error(t, err)
	_, err = sim.New(s.sched, s.clk, sim.Config{LinkRate: 1, Retry: -time.Second})
	assert.Error(t, err)
	_, err = sim.New(s.sched, s.clk, sim.Config{
		LinkRate: 1,
		Sources:  []sim.Source{&sim.Backlogged{ClassID: 42, Size: 1}},
	})
	assert.ErrorIs(t, err, hfsc.ErrUnknownClass)
}

func TestRunCanceled(t *testing.T) {
	s := newSetup(t)
	simulator, err := sim.New(s.sched, s.clk, sim.Config{LinkRate: linkRate})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = simulator.Run(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCBR(t *testing.T) {
	src := &sim.CBR{
		Size:  100,
		Rate:  8000,
		Start: 50 * time.Millisecond,
		Stop:  300 * time.Millisecond,
	}
	sizes, next := src.Poll(0, 0)
	assert.Empty(t, sizes)
	assert.Equal(t, 50*time.Millisecond, next)

	sizes, next = src.Poll(50*time.Millisecond, 0)
	assert.Equal(t, []int{100}, sizes)
	assert.Equal(t, 150*time.Millisecond, next)

	sizes, next = src.Poll(260*time.Millisecond, 0)
	assert.Equal(t, []int{100, 100}, sizes)
	assert.Equal(t, sim.Never, next)
}

func TestBacklogged(t *testing.T) {
	src := &sim.Backlogged{Size: 10, Backlog: 3}
	sizes, next := src.Poll(0, 1)
	assert.Equal(t, []int{10, 10}, sizes)
	assert.Equal(t, sim.Never, next)
	sizes, _ = src.Poll(0, 3)
	assert.Empty(t, sizes)
}

func TestFrames(t *testing.T) {
	simulate := func(t *testing.T, frames bool) []sim.Result {
		s := newSetup(t)
		voice := s.class(t, hfsc.ClassConfig{
			Name:      "voice",
			RealTime:  &curve.ServiceCurve{M2: 1_000_000},
			LinkShare: &curve.ServiceCurve{M2: 1_000_000},
		})
		bulk := s.class(t, hfsc.ClassConfig{
			Name:       "bulk",
			LinkShare:  &curve.ServiceCurve{M2: 9_000_000},
			QueueLimit: 20,
		})
		simulator, err := sim.New(s.sched, s.clk, sim.Config{
			LinkRate: linkRate,
			Sources: []sim.Source{
				&sim.CBR{ClassID: voice, Size: 200, Rate: 500_000},
				&sim.Backlogged{ClassID: bulk, Size: 1500, Backlog: 10},
			},
			Frames: frames,
			Logger: testlog.NewLogger(t),
		})
		require.NoError(t, err)
		results, err := simulator.Run(t.Context(), 500*time.Millisecond)
		require.NoError(t, err)
		return results
	}

	plain := simulate(t, false)
	framed := simulate(t, true)
	require.Len(t, framed, 2)
	if diff := cmp.Diff(plain, framed); diff != "" {
		t.Fatalf("frames change the outcome (-plain +frames):\n%s", diff)
	}

	t.Run("too small", func(t *testing.T) {
		s := newSetup(t)
		c := s.class(t, hfsc.ClassConfig{Name: "c", LinkShare: &curve.ServiceCurve{M2: linkRate}})
		simulator, err := sim.New(s.sched, s.clk, sim.Config{
			LinkRate: linkRate,
			Sources:  []sim.Source{&sim.Backlogged{ClassID: c, Size: sim.MinFrameSize - 1}},
			Frames:   true,
			Logger:   testlog.NewLogger(t),
		})
		require.NoError(t, err)
		_, err = simulator.Run(t.Context(), time.Millisecond)
		assert.ErrorContains(t, err, "too small")
	})
}
