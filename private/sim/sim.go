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

// Package sim runs a scheduler against synthetic traffic in simulated time.
//
// The simulation is single threaded. It owns a manual clock and jumps from
// event to event: packet arrivals of the sources, the end of a packet
// transmission on the link and retries while the scheduler holds packets
// back because of upper limits.
package sim

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/scionproto/hfsc/pkg/hfsc"
	"github.com/scionproto/hfsc/pkg/hfsc/clock"
	"github.com/scionproto/hfsc/pkg/hfsc/queue"
	"github.com/scionproto/hfsc/pkg/log"
	"github.com/scionproto/hfsc/pkg/private/serrors"
)

// DefaultRetry is the default time the link waits before it asks the
// scheduler again after it got no packet although packets are queued.
const DefaultRetry = 100 * time.Microsecond

// Packet is a simulated packet.
type Packet struct {
	Class hfsc.ClassID
	Size  int
	// Arrival is the tick the packet was enqueued at.
	Arrival uint64
	// Frame is the serialized packet if frames are enabled.
	Frame *queue.GoPacket
}

func (p *Packet) Len() int {
	if p.Frame != nil {
		return p.Frame.Len()
	}
	return p.Size
}

// Config configures a simulation.
type Config struct {
	// LinkRate is the rate of the link in bits per second.
	LinkRate uint64
	Sources  []Source
	// Retry is the retry interval of the link. Zero selects DefaultRetry.
	Retry time.Duration
	// Frames makes the simulator send Ethernet/IPv4/UDP frames decoded with
	// gopacket instead of bare sizes. The packet sizes must be at least
	// MinFrameSize.
	Frames bool
	Logger log.Logger
}

// Result is the outcome of a simulation for one class.
type Result struct {
	Class          hfsc.ClassID
	Name           string
	SentPackets    uint64
	SentBytes      uint64
	DroppedPackets uint64
	// Rate is the achieved rate in bits per second.
	Rate     uint64
	MaxDelay time.Duration
}

// Simulator feeds a scheduler with the packets of the sources and drains it
// at the link rate.
type Simulator struct {
	sched   *hfsc.Scheduler
	clk     *clock.Manual
	cfg     Config
	results map[hfsc.ClassID]*Result
}

// New creates a simulator. clk must be the clock of sched.
func New(sched *hfsc.Scheduler, clk *clock.Manual, cfg Config) (*Simulator, error) {
	if cfg.LinkRate == 0 {
		return nil, serrors.New("link rate must not be zero")
	}
	if cfg.Retry == 0 {
		cfg.Retry = DefaultRetry
	}
	if cfg.Retry < 0 {
		return nil, serrors.New("negative retry interval", "retry", cfg.Retry)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Root()
	}
	for _, src := range cfg.Sources {
		if _, err := sched.Stats(src.Class()); err != nil {
			return nil, serrors.Wrap("invalid source", err)
		}
	}
	return &Simulator{
		sched: sched,
		clk:   clk,
		cfg:   cfg,
	}, nil
}

// Run simulates d of traffic starting at the current time of the clock. It
// returns the results of all classes that had traffic in this run, ordered
// by class.
func (s *Simulator) Run(ctx context.Context, d time.Duration) ([]Result, error) {
	freq := s.clk.Frequency()
	start := s.clk.Now()
	end := start + clock.Ticks(freq, d)
	retry := max(clock.Ticks(freq, s.cfg.Retry), 1)
	wakeups := make([]time.Duration, len(s.cfg.Sources))
	s.results = make(map[hfsc.ClassID]*Result)
	var busyUntil uint64

	for step := 0; ; step++ {
		if step%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		now := s.clk.Now()
		elapsed := clock.Duration(freq, now-start)
		for i, src := range s.cfg.Sources {
			if err := s.poll(src, elapsed, now, &wakeups[i]); err != nil {
				return nil, err
			}
		}
		if now >= busyUntil {
			if pkt, ok := s.sched.Dequeue(now); ok {
				p := pkt.(*Packet)
				s.sent(p, now)
				busyUntil = now + max(clock.Ticks(freq, transmission(p.Len(), s.cfg.LinkRate)), 1)
			}
		}
		if now >= end {
			break
		}

		next := end
		if busyUntil > now {
			next = min(next, busyUntil)
		} else if s.sched.Len() > 0 {
			next = min(next, now+retry)
		}
		for _, w := range wakeups {
			if w != Never {
				next = min(next, start+clock.Ticks(freq, w))
			}
		}
		s.clk.Set(max(next, now+1))
	}
	return s.collect(d), nil
}

func (s *Simulator) poll(src Source, elapsed time.Duration, now uint64,
	wakeup *time.Duration) error {

	st, err := s.sched.Stats(src.Class())
	if err != nil {
		return err
	}
	sizes, next := src.Poll(elapsed, st.QueueLength)
	*wakeup = next
	for _, size := range sizes {
		pkt := &Packet{Class: src.Class(), Size: size, Arrival: now}
		if s.cfg.Frames {
			if pkt.Frame, err = buildFrame(src.Class(), size); err != nil {
				return err
			}
		}
		err := s.sched.Enqueue(src.Class(), pkt)
		switch {
		case err == nil:
			s.result(src.Class())
		case errors.Is(err, hfsc.ErrQueueFull):
			s.result(src.Class()).DroppedPackets++
		default:
			return err
		}
	}
	return nil
}

func (s *Simulator) sent(p *Packet, now uint64) {
	r := s.result(p.Class)
	r.SentPackets++
	r.SentBytes += uint64(p.Len())
	r.MaxDelay = max(r.MaxDelay, clock.Duration(s.clk.Frequency(), now-p.Arrival))
}

func (s *Simulator) result(id hfsc.ClassID) *Result {
	r, ok := s.results[id]
	if !ok {
		r = &Result{Class: id}
		if st, err := s.sched.Stats(id); err == nil {
			r.Name = st.Name
		}
		s.results[id] = r
	}
	return r
}

func (s *Simulator) collect(d time.Duration) []Result {
	results := make([]Result, 0, len(s.results))
	for _, r := range s.results {
		if d > 0 {
			r.Rate = uint64(float64(r.SentBytes*8) / d.Seconds())
		}
		results = append(results, *r)
	}
	slices.SortFunc(results, func(a, b Result) int {
		return int(a.Class) - int(b.Class)
	})
	s.cfg.Logger.Debug("Simulation finished", "duration", d, "classes", len(results),
		"queued", s.sched.Len())
	return results
}
