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
	"math/bits"

	"github.com/scionproto/hfsc/pkg/hfsc/curve"
)

// initVF activates the leaf cl and, going up, every ancestor that was not
// active yet.
func (s *Scheduler) initVF(cl *class, now uint64) {
	goActive := true
	for ; cl.parent != nil; cl = cl.parent {
		p := cl.parent
		if goActive {
			goActive = cl.nactive == 0
			cl.nactive++
		}
		if goActive {
			invariant(cl.fsc != nil, "active class without link-sharing curve", "class", cl.id)
			if maxCl := p.active.last(); maxCl != nil {
				// Start in the middle between the smallest and the largest
				// virtual time of the siblings. Within the same backlog period
				// of the parent, vt never decreases.
				vt := maxCl.vt
				if p.cvtmin != 0 {
					vt = (p.cvtmin + vt) / 2
				}
				if p.vtperiod != cl.parentperiod || vt > cl.vt {
					cl.vt = vt
				}
			} else {
				// First active child in a new backlog period of the parent.
				// Offset all children by the largest vt of the previous
				// period, so that the new virtual times of the children are
				// larger than all the old ones.
				for _, c := range p.children {
					c.vtoff += p.cvtmax
				}
				cl.vt = 0
				p.cvtmax = 0
				p.cvtmin = 0
			}

			vt := cl.vt + cl.vtoff
			cl.virtual.Min(*cl.fsc, vt, cl.total)
			if cl.virtual.X == vt {
				cl.virtual.X -= cl.vtoff
				cl.vtoff = 0
			}
			cl.vtadj = 0

			cl.vtperiod++
			cl.parentperiod = p.vtperiod
			if p.nactive == 0 {
				cl.parentperiod++
			}
			cl.f = 0
			p.active.insert(cl)

			if cl.usc != nil {
				cl.ulimit.Min(*cl.usc, now, cl.total)
				cl.myf = cl.ulimit.Y2X(cl.total)
				cl.myfadj = 0
			}
		}
		updateF(cl)
	}
}

// updateVF accounts length bytes served by the leaf cl to cl and its
// ancestors and updates their virtual and fit times. If the queue of cl is
// empty, cl goes passive, and so does every ancestor without another active
// child.
func (s *Scheduler) updateVF(cl *class, length, now uint64) {
	goPassive := cl.q.Len() == 0 && cl.fsc != nil
	for ; cl.parent != nil; cl = cl.parent {
		p := cl.parent
		cl.total += length
		if cl.fsc == nil || cl.nactive == 0 {
			continue
		}
		if goPassive {
			cl.nactive--
			goPassive = cl.nactive == 0
		}
		if goPassive {
			p.cvtmax = max(p.cvtmax, cl.vt)
			p.active.remove(cl)
			updateCFMin(p)
			continue
		}

		cl.vt = subSat(addSat(cl.virtual.Y2X(cl.total), cl.vtadj), cl.vtoff)
		// A vt below cvtmin means the class was skipped in the past because
		// it did not fit. Catch up, but remember the adjustment.
		if cl.vt < p.cvtmin {
			cl.vtadj += p.cvtmin - cl.vt
			cl.vt = p.cvtmin
		}
		p.active.update(cl)

		if cl.usc != nil {
			cl.myf = addSat(cl.myfadj, cl.ulimit.Y2X(cl.total))
			// Under rate limiting myf fluctuates within the timer slack. If
			// it lags further behind, the class was not using its share and
			// must not send a burst now.
			if now > s.slack && cl.myf < now-s.slack {
				delta := now - cl.myf
				cl.myfadj += delta
				cl.myf += delta
			}
		}
		updateF(cl)
	}
	// cl is the root.
	cl.total += length
}

// updateF sets the fit time of cl to the larger of its own fit time and
// that of its children.
func updateF(cl *class) {
	f := max(cl.myf, cl.cfmin)
	if f != cl.f {
		cl.f = f
		updateCFMin(cl.parent)
	}
}

// updateCFMin sets cfmin to the smallest fit time of the active children.
func updateCFMin(cl *class) {
	if cl.active.head == nil {
		cl.cfmin = 0
		return
	}
	cfmin := curve.Infinity
	for p := cl.active.head; p != nil; p = cl.active.next(p) {
		if p.f == 0 {
			cl.cfmin = 0
			return
		}
		cfmin = min(cfmin, p.f)
	}
	cl.cfmin = cfmin
}

func addSat(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return curve.Infinity
	}
	return sum
}

func subSat(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}
