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
	"time"

	"github.com/scionproto/hfsc/pkg/log"
)

const (
	// DefaultMaxClasses is the default capacity of the class table.
	DefaultMaxClasses = 64
	// DefaultTimerSlack is the default lag of the fit time behind the
	// current time that is tolerated for upper limited classes.
	DefaultTimerSlack = time.Millisecond
)

type options struct {
	maxClasses int
	timerSlack time.Duration
	logger     log.Logger
	metrics    *Metrics
}

// Option configures a Scheduler.
type Option func(o *options)

// WithMaxClasses sets the capacity of the class table.
func WithMaxClasses(n int) Option {
	return func(o *options) {
		o.maxClasses = n
	}
}

// WithTimerSlack sets how far the fit time of an upper limited class may
// lag behind the current time before it is pulled forward. Without this
// bound, a class that was idle could send a burst above its limit.
func WithTimerSlack(d time.Duration) Option {
	return func(o *options) {
		o.timerSlack = d
	}
}

// WithLogger sets the logger. Class lifecycle events are logged at debug
// level, the packet path does not log.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics enables metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func applyOptions(opts []Option) options {
	o := options{
		maxClasses: DefaultMaxClasses,
		timerSlack: DefaultTimerSlack,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Root()
	}
	return o
}
