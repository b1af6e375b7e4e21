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

// Package curve implements the service curve arithmetic of the scheduler.
//
// A ServiceCurve is the two piece linear curve a class is configured with:
// it grows with slope M1 for the duration D and with slope M2 afterwards. For
// scheduling, curves are converted to the Internal representation, which
// works on ticks and bytes:
//
//   - SM is the slope in bytes per tick, scaled by 2^SMShift.
//   - ISM is the inverse slope in ticks per byte, scaled by 2^ISMShift.
//   - DX is D in ticks, DY the bytes served during DX at slope SM1.
//
// A Runtime curve is an Internal curve anchored at a point (X ticks,
// Y bytes). The scheduler keeps one runtime curve per criterion and class.
//
// All arithmetic uses 128-bit intermediates and saturates at Infinity.
package curve

import (
	"fmt"
	"math"
	"math/bits"
	"time"

	"github.com/scionproto/hfsc/pkg/private/serrors"
)

const (
	// SMShift is the fixed point shift of slopes.
	SMShift = 24
	// ISMShift is the fixed point shift of inverse slopes.
	ISMShift = 14
	// Infinity is the saturation value of all curve quantities.
	Infinity uint64 = math.MaxUint64
)

// ServiceCurve is a two piece linear service curve. Rates are in bits per
// second. A curve with both rates zero is absent.
type ServiceCurve struct {
	M1 uint64
	D  time.Duration
	M2 uint64
}

// IsZero reports whether both slopes are zero.
func (sc ServiceCurve) IsZero() bool {
	return sc.M1 == 0 && sc.M2 == 0
}

func (sc ServiceCurve) String() string {
	return fmt.Sprintf("m1 %dbit d %s m2 %dbit", sc.M1, sc.D, sc.M2)
}

// Internal is a service curve in scaled tick and byte units.
type Internal struct {
	SM1  uint64
	ISM1 uint64
	DX   uint64
	DY   uint64
	SM2  uint64
	ISM2 uint64
}

// Convex reports whether the first slope is not larger than the second one.
func (c Internal) Convex() bool {
	return c.SM1 <= c.SM2
}

// Converter translates between external and internal curves for a clock
// with the given frequency in ticks per second.
type Converter struct {
	Frequency uint64
}

// ToInternal converts sc. Values that do not fit saturate at Infinity, use
// Check to reject such curves.
func (cv Converter) ToInternal(sc ServiceCurve) Internal {
	c := Internal{
		SM1:  cv.slope(sc.M1),
		ISM1: cv.inverseSlope(sc.M1),
		DX:   cv.ticks(sc.D),
		SM2:  cv.slope(sc.M2),
		ISM2: cv.inverseSlope(sc.M2),
	}
	c.DY = segX2Y(c.DX, c.SM1)
	return c
}

// ToExternal converts c back to a service curve. The result is rounded down
// and can differ slightly from the curve c was created from.
func (cv Converter) ToExternal(c Internal) ServiceCurve {
	return ServiceCurve{
		M1: cv.rate(c.SM1),
		D:  cv.duration(c.DX),
		M2: cv.rate(c.SM2),
	}
}

// Check reports whether sc can be represented with the converter's
// frequency.
func (cv Converter) Check(sc ServiceCurve) error {
	if sc.D < 0 {
		return serrors.New("negative duration", "d", sc.D)
	}
	for _, m := range []uint64{sc.M1, sc.M2} {
		if m == 0 {
			continue
		}
		if cv.slope(m) == 0 {
			return serrors.New("rate too small", "rate", m, "frequency", cv.Frequency)
		}
		if sm, ism := cv.slope(m), cv.inverseSlope(m); sm == Infinity || ism == 0 {
			return serrors.New("rate too large", "rate", m, "frequency", cv.Frequency)
		}
	}
	if cv.ticks(sc.D) == Infinity {
		return serrors.New("duration too large", "d", sc.D)
	}
	return nil
}

// slope converts bits per second to scaled bytes per tick.
func (cv Converter) slope(m uint64) uint64 {
	hi, lo := bits.Mul64(m, 1<<SMShift)
	div := 8 * cv.Frequency
	if hi >= div {
		return Infinity
	}
	q, _ := bits.Div64(hi, lo, div)
	return q
}

// inverseSlope converts bits per second to scaled ticks per byte.
func (cv Converter) inverseSlope(m uint64) uint64 {
	if m == 0 {
		return Infinity
	}
	hi, lo := bits.Mul64(cv.Frequency, 8<<ISMShift)
	if hi >= m {
		return Infinity
	}
	q, _ := bits.Div64(hi, lo, m)
	return q
}

func (cv Converter) ticks(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(d), cv.Frequency)
	if hi >= uint64(time.Second) {
		return Infinity
	}
	q, _ := bits.Div64(hi, lo, uint64(time.Second))
	return q
}

func (cv Converter) rate(sm uint64) uint64 {
	hi, lo := bits.Mul64(sm, 8*cv.Frequency)
	return shiftSat(hi, lo, SMShift)
}

func (cv Converter) duration(dx uint64) time.Duration {
	hi, lo := bits.Mul64(dx, uint64(time.Second))
	if hi >= cv.Frequency {
		return time.Duration(math.MaxInt64)
	}
	q, _ := bits.Div64(hi, lo, cv.Frequency)
	if q > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(q)
}

// segX2Y returns the bytes served in x ticks at slope sm.
func segX2Y(x, sm uint64) uint64 {
	hi, lo := bits.Mul64(x, sm)
	return shiftSat(hi, lo, SMShift)
}

// segY2X returns the ticks needed to serve y bytes at inverse slope ism.
func segY2X(y, ism uint64) uint64 {
	switch {
	case y == 0:
		return 0
	case ism == Infinity:
		return Infinity
	}
	hi, lo := bits.Mul64(y, ism)
	return shiftSat(hi, lo, ISMShift)
}

// shiftSat returns the 128-bit value hi:lo shifted right by s, saturated to
// 64 bits.
func shiftSat(hi, lo uint64, s uint) uint64 {
	if hi>>s != 0 {
		return Infinity
	}
	return hi<<(64-s) | lo>>s
}

func addSat(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return Infinity
	}
	return sum
}
