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
package curve_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scionproto/hfsc/pkg/hfsc/curve"
)

// usTicks is a converter for a microsecond clock. At this frequency a rate of
// 8 Mbit/s is exactly one byte per tick.
var usTicks = curve.Converter{Frequency: 1_000_000}

func TestToInternalExact(t *testing.T) {
	c := usTicks.ToInternal(curve.ServiceCurve{
		M1: 16_000_000,
		D:  time.Millisecond,
		M2: 8_000_000,
	})
	assert.Equal(t, curve.Internal{
		SM1:  2 << curve.SMShift,
		ISM1: 1 << (curve.ISMShift - 1),
		DX:   1000,
		DY:   2000,
		SM2:  1 << curve.SMShift,
		ISM2: 1 << curve.ISMShift,
	}, c)
	assert.False(t, c.Convex())
}

func TestZeroSlope(t *testing.T) {
	c := usTicks.ToInternal(curve.ServiceCurve{D: 5 * time.Millisecond, M2: 8_000_000})
	assert.Equal(t, uint64(0), c.SM1)
	assert.Equal(t, curve.Infinity, c.ISM1)
	assert.Equal(t, uint64(5000), c.DX)
	assert.Equal(t, uint64(0), c.DY)
	assert.True(t, c.Convex())
	assert.True(t, curve.ServiceCurve{D: time.Second}.IsZero())
}

func TestRoundTrip(t *testing.T) {
	cv := curve.Converter{Frequency: 1_000_000_000}
	rates := []uint64{1_000_000, 10_000_000, 64_000_000, 1_000_000_000, 40_000_000_000}
	for _, m := range rates {
		sc := curve.ServiceCurve{M1: m, D: 20 * time.Millisecond, M2: m / 2}
		require.NoError(t, cv.Check(sc))
		back := cv.ToExternal(cv.ToInternal(sc))
		// The slope is truncated to a multiple of 8*freq/2^24 bit/s.
		tolerance := 8*cv.Frequency>>curve.SMShift + 1
		assert.InDelta(t, sc.M1, back.M1, float64(tolerance), "m1 %d", m)
		assert.InDelta(t, sc.M2, back.M2, float64(tolerance), "m2 %d", m)
		assert.LessOrEqual(t, back.M1, sc.M1)
		assert.Equal(t, sc.D, back.D)
	}

	sc := curve.ServiceCurve{M1: 16_000_000, D: 3 * time.Millisecond, M2: 8_000_000}
	assert.Equal(t, sc, usTicks.ToExternal(usTicks.ToInternal(sc)))
}

func TestCheck(t *testing.T) {
	cv := curve.Converter{Frequency: 1_000_000_000}
	tests := map[string]struct {
		sc        curve.ServiceCurve
		assertErr assert.ErrorAssertionFunc
	}{
		"linear": {
			sc:        curve.ServiceCurve{M2: 1_000_000},
			assertErr: assert.NoError,
		},
		"zero": {
			sc:        curve.ServiceCurve{},
			assertErr: assert.NoError,
		},
		"negative duration": {
			sc:        curve.ServiceCurve{M1: 1_000_000, D: -time.Millisecond, M2: 1_000},
			assertErr: assert.Error,
		},
		"rate below resolution": {
			sc:        curve.ServiceCurve{M2: 100},
			assertErr: assert.Error,
		},
		"rate overflows": {
			sc:        curve.ServiceCurve{M2: curve.Infinity},
			assertErr: assert.Error,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			tc.assertErr(t, cv.Check(tc.sc))
		})
	}
}
