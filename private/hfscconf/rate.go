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
package hfscconf

import (
	"encoding"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/scionproto/hfsc/pkg/private/serrors"
)

var _ encoding.TextUnmarshaler = (*Rate)(nil)
var _ encoding.TextMarshaler = Rate(0)

// Rate is a rate in bits per second. It is written with an optional SI
// prefix and unit, e.g. "10Mbit", "500kbit" or "1.5MB". A unit of B or Bps
// counts bytes. The prefix m is milli, not mega.
type Rate uint64

// ParseRate parses a rate.
func ParseRate(s string) (Rate, error) {
	v, unit, err := humanize.ParseSI(strings.TrimSpace(s))
	if err != nil {
		return 0, serrors.Wrap("invalid rate", err, "value", s)
	}
	switch unit {
	case "", "bit", "bps", "bit/s":
	case "B", "Bps", "B/s":
		v *= 8
	default:
		return 0, serrors.New("invalid rate unit", "value", s, "unit", unit)
	}
	if v < 0 || v >= math.MaxUint64 {
		return 0, serrors.New("rate out of range", "value", s)
	}
	bits := math.Round(v)
	if math.Abs(v-bits) > 1e-6*math.Max(1, v) {
		return 0, serrors.New("rate is not a whole number of bits per second", "value", s)
	}
	return Rate(bits), nil
}

func (r *Rate) UnmarshalText(text []byte) error {
	v, err := ParseRate(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

func (r Rate) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r Rate) String() string {
	return strings.ReplaceAll(humanize.SI(float64(r), "bit"), " ", "")
}
