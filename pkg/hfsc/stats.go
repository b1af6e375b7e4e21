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
	"github.com/scionproto/hfsc/pkg/hfsc/curve"
	"github.com/scionproto/hfsc/pkg/private/serrors"
)

// ClassStats is a snapshot of the state of a class. Times are in clock
// ticks, service in bytes.
type ClassStats struct {
	ID     ClassID
	Name   string
	Parent ClassID
	// Children is the number of child classes.
	Children int

	// RealTime, LinkShare and UpperLimit are the configured curves as
	// represented internally, nil if not configured.
	RealTime   *curve.ServiceCurve
	LinkShare  *curve.ServiceCurve
	UpperLimit *curve.ServiceCurve

	QueueLength int
	// Cumul is the service received by the real-time criterion.
	Cumul uint64
	// Total is the service received by the class and its descendants.
	Total uint64

	VirtualTime  uint64
	EligibleTime uint64
	Deadline     uint64
	FitTime      uint64
	// Active is the number of active children, or 1 for an active leaf.
	Active int
	// Periods is the number of backlog periods.
	Periods uint64

	SentPackets    uint64
	SentBytes      uint64
	DroppedPackets uint64
	DroppedBytes   uint64
}

// Stats returns the snapshot of the class id.
func (s *Scheduler) Stats(id ClassID) (ClassStats, error) {
	cl := s.lookup(id)
	if cl == nil {
		return ClassStats{}, serrors.Join(ErrUnknownClass, nil, "id", id)
	}
	st := ClassStats{
		ID:             cl.id,
		Name:           cl.name,
		Children:       len(cl.children),
		RealTime:       s.externalCurve(cl.rsc),
		LinkShare:      s.externalCurve(cl.fsc),
		UpperLimit:     s.externalCurve(cl.usc),
		QueueLength:    cl.q.Len(),
		Cumul:          cl.cumul,
		Total:          cl.total,
		VirtualTime:    cl.vt,
		EligibleTime:   cl.e,
		Deadline:       cl.d,
		FitTime:        cl.f,
		Active:         cl.nactive,
		Periods:        cl.stats.periods,
		SentPackets:    cl.stats.sentPackets,
		SentBytes:      cl.stats.sentBytes,
		DroppedPackets: cl.stats.droppedPackets,
		DroppedBytes:   cl.stats.droppedBytes,
	}
	if cl.parent != nil {
		st.Parent = cl.parent.id
	}
	return st, nil
}

func (s *Scheduler) externalCurve(c *curve.Internal) *curve.ServiceCurve {
	if c == nil {
		return nil
	}
	sc := s.conv.ToExternal(*c)
	return &sc
}
