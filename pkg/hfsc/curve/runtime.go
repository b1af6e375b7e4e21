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
package curve

import (
	"math/bits"
)

// Runtime is an internal curve anchored at (X, Y).
type Runtime struct {
	X    uint64
	Y    uint64
	SM1  uint64
	ISM1 uint64
	DX   uint64
	DY   uint64
	SM2  uint64
	ISM2 uint64
}

// NewRuntime anchors c at (x, y).
func NewRuntime(c Internal, x, y uint64) Runtime {
	return Runtime{
		X:    x,
		Y:    y,
		SM1:  c.SM1,
		ISM1: c.ISM1,
		DX:   c.DX,
		DY:   c.DY,
		SM2:  c.SM2,
		ISM2: c.ISM2,
	}
}

// Y2X returns the first x at which the curve reaches y. For y below the
// anchor it returns X.
func (r *Runtime) Y2X(y uint64) uint64 {
	switch {
	case y < r.Y:
		return r.X
	case y <= addSat(r.Y, r.DY):
		if r.DY == 0 {
			return addSat(r.X, r.DX)
		}
		return addSat(r.X, segY2X(y-r.Y, r.ISM1))
	default:
		return addSat(addSat(r.X, r.DX), segY2X(y-r.Y-r.DY, r.ISM2))
	}
}

// X2Y returns the value of the curve at x. For x before the anchor it
// returns Y.
func (r *Runtime) X2Y(x uint64) uint64 {
	switch {
	case x <= r.X:
		return r.Y
	case x <= addSat(r.X, r.DX):
		return addSat(r.Y, segX2Y(x-r.X, r.SM1))
	default:
		return addSat(addSat(r.Y, r.DY), segX2Y(x-r.X-r.DX, r.SM2))
	}
}

// Min sets r to the lower envelope of r and the curve c anchored at (x, y).
// c must have the slopes r was created with.
func (r *Runtime) Min(c Internal, x, y uint64) {
	if c.Convex() {
		// A convex curve anchored later and lower stays below.
		if r.X2Y(x) < y {
			return
		}
		r.X = x
		r.Y = y
		return
	}
	y1 := r.X2Y(x)
	if y1 <= y {
		return
	}
	y2 := r.X2Y(addSat(x, c.DX))
	if y2 >= addSat(y, c.DY) {
		r.X, r.Y, r.DX, r.DY = x, y, c.DX, c.DY
		return
	}
	// The curves intersect during the first segment of c. Solve for the
	// length of the first segment of the envelope.
	dx := Infinity
	dsm := c.SM1 - c.SM2
	diff := y1 - y
	if hi := diff >> (64 - SMShift); hi < dsm {
		dx, _ = bits.Div64(hi, diff<<SMShift, dsm)
	}
	if end := addSat(r.X, r.DX); end > x {
		dx = addSat(dx, end-x)
	}
	r.X, r.Y, r.DX, r.DY = x, y, dx, segX2Y(dx, c.SM1)
}
