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

// setActive starts a backlog period of the leaf cl. length is the length of
// the head packet.
func (s *Scheduler) setActive(cl *class, length, now uint64) {
	if cl.rsc != nil {
		s.initED(cl, length, now)
	}
	if cl.fsc != nil {
		s.initVF(cl, now)
	}
	cl.stats.periods++
}

// setPassive ends the real-time backlog period of cl. The link-sharing
// state is handled by updateVF.
func (s *Scheduler) setPassive(cl *class) {
	if cl.rsc != nil {
		s.eligible.remove(cl)
	}
}

// initED anchors the deadline curve at the current time and computes the
// eligible time and deadline of the head packet.
func (s *Scheduler) initED(cl *class, next, now uint64) {
	cl.deadline.Min(*cl.rsc, now, cl.cumul)
	s.resetEligible(cl)
	cl.e = cl.eligible.Y2X(cl.cumul)
	cl.d = cl.deadline.Y2X(cl.cumul + next)
	s.eligible.insert(cl)
}

// resetEligible derives the eligible curve from the deadline curve. For a
// concave curve they are equal, for a convex curve the eligible curve is
// linear with the second slope.
func (s *Scheduler) resetEligible(cl *class) {
	cl.eligible = cl.deadline
	if cl.rsc.Convex() {
		cl.eligible.DX = 0
		cl.eligible.DY = 0
	}
}

func (s *Scheduler) updateED(cl *class, next uint64) {
	cl.e = cl.eligible.Y2X(cl.cumul)
	cl.d = cl.deadline.Y2X(cl.cumul + next)
	s.eligible.update(cl)
}

func (s *Scheduler) updateD(cl *class, next uint64) {
	cl.d = cl.deadline.Y2X(cl.cumul + next)
}
