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
package sim

import (
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/scionproto/hfsc/pkg/hfsc"
)

// Never is returned by sources that do not need to be woken up at a
// specific time.
const Never = time.Duration(math.MaxInt64)

// Source generates the packets of one class.
type Source interface {
	// Class is the class that receives the packets.
	Class() hfsc.ClassID
	// Poll returns the sizes of the packets due at now and the time of the
	// next packet. queued is the current queue length of the class. Poll is
	// called whenever the simulation time advances, times are relative to
	// the start of the simulation.
	Poll(now time.Duration, queued int) ([]int, time.Duration)
}

// Backlogged keeps the class backlogged with Backlog packets.
type Backlogged struct {
	ClassID hfsc.ClassID
	Size    int
	// Backlog is the number of packets kept queued. Zero means 2.
	Backlog int
}

func (b *Backlogged) Class() hfsc.ClassID {
	return b.ClassID
}

func (b *Backlogged) Poll(_ time.Duration, queued int) ([]int, time.Duration) {
	backlog := b.Backlog
	if backlog == 0 {
		backlog = 2
	}
	if queued >= backlog {
		return nil, Never
	}
	return repeat(b.Size, backlog-queued), Never
}

// CBR sends packets of Size bytes at the constant bit rate Rate between
// Start and Stop. A zero Stop never stops.
type CBR struct {
	ClassID hfsc.ClassID
	Size    int
	Rate    uint64
	Start   time.Duration
	Stop    time.Duration

	next    time.Duration
	started bool
}

func (c *CBR) Class() hfsc.ClassID {
	return c.ClassID
}

func (c *CBR) Poll(now time.Duration, _ int) ([]int, time.Duration) {
	if !c.started {
		c.next = c.Start
		c.started = true
	}
	interval := max(transmission(c.Size, c.Rate), 1)
	var sizes []int
	for c.next <= now && !c.stopped() {
		sizes = append(sizes, c.Size)
		c.next += interval
	}
	if c.stopped() {
		return sizes, Never
	}
	return sizes, c.next
}

func (c *CBR) stopped() bool {
	return c.Stop != 0 && c.next >= c.Stop
}

// epoch is the wall time that corresponds to the start of a simulation. The
// rate limiter only works with absolute times.
var epoch = time.Unix(0, 0)

// Shaped is a greedy sender behind a token bucket with the rate Rate and the
// depth Burst in bytes.
type Shaped struct {
	ClassID hfsc.ClassID
	Size    int
	Rate    uint64
	Burst   int

	limiter *rate.Limiter
}

func (s *Shaped) Class() hfsc.ClassID {
	return s.ClassID
}

func (s *Shaped) Poll(now time.Duration, _ int) ([]int, time.Duration) {
	bytesPerSec := float64(s.Rate) / 8
	if s.limiter == nil {
		s.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), max(s.Burst, s.Size))
	}
	t := epoch.Add(now)
	var sizes []int
	for s.limiter.AllowN(t, s.Size) {
		sizes = append(sizes, s.Size)
	}
	missing := float64(s.Size) - s.limiter.TokensAt(t)
	wait := time.Duration(math.Ceil(missing / bytesPerSec * float64(time.Second)))
	return sizes, now + max(wait, 1)
}

// transmission returns the time it takes to send size bytes at bitsPerSec.
func transmission(size int, bitsPerSec uint64) time.Duration {
	return time.Duration(uint64(size) * 8 * uint64(time.Second) / bitsPerSec)
}

func repeat(size, n int) []int {
	sizes := make([]int, n)
	for i := range sizes {
		sizes[i] = size
	}
	return sizes
}
