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

// Package util contains helpers for configuration values.
package util

import (
	"regexp"
	"strconv"
	"time"

	"github.com/scionproto/hfsc/pkg/private/serrors"
)

var durationRegex = regexp.MustCompile(`^(\d+)(d|h|m|s|ms|us|µs|ns)$`)

var durationUnits = []struct {
	unit string
	dur  time.Duration
}{
	{"d", 24 * time.Hour},
	{"h", time.Hour},
	{"m", time.Minute},
	{"s", time.Second},
	{"ms", time.Millisecond},
	{"us", time.Microsecond},
	{"ns", time.Nanosecond},
}

// ParseDuration parses a duration of the form <number><unit>, e.g. "10ms".
// The units are d, h, m, s, ms, us (or µs) and ns. Only one unit is allowed.
func ParseDuration(s string) (time.Duration, error) {
	matches := durationRegex.FindStringSubmatch(s)
	if len(matches) != 3 {
		return 0, serrors.New("invalid duration", "value", s)
	}
	n, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, serrors.Wrap("invalid duration", err, "value", s)
	}
	unit := matches[2]
	if unit == "µs" {
		unit = "us"
	}
	for _, u := range durationUnits {
		if u.unit != unit {
			continue
		}
		if n > int64(time.Duration(1<<63-1)/u.dur) {
			return 0, serrors.New("duration overflows", "value", s)
		}
		return time.Duration(n) * u.dur, nil
	}
	return 0, serrors.New("invalid duration unit", "value", s)
}

// FmtDuration formats d with the largest unit that represents it exactly.
// Negative durations are formatted with the standard library format.
func FmtDuration(d time.Duration) string {
	if d < 0 {
		return d.String()
	}
	if d == 0 {
		return "0s"
	}
	for _, u := range durationUnits {
		if d%u.dur == 0 {
			return strconv.FormatInt(int64(d/u.dur), 10) + u.unit
		}
	}
	return d.String()
}
