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
package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/scionproto/hfsc/pkg/metrics"
)

func TestNilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.CounterInc(nil)
		metrics.CounterAdd(metrics.CounterWith(nil, "a", "b"), 2)
		metrics.GaugeSet(metrics.GaugeWith(nil, "a", "b"), 2)
		metrics.GaugeAdd(nil, 1)
	})
}

func TestTestCounter(t *testing.T) {
	c := metrics.NewTestCounter()
	metrics.CounterInc(c.With("class", "voice", "criterion", "realtime"))
	metrics.CounterAdd(c.With("criterion", "realtime").With("class", "voice"), 2)
	metrics.CounterInc(c.With("class", "bulk"))

	assert.Equal(t, 3.0, c.Value("class", "voice", "criterion", "realtime"))
	assert.Equal(t, 1.0, c.Value("class", "bulk"))
	assert.Equal(t, 0.0, metrics.CounterValue(c))
	assert.Panics(t, func() { c.Add(-1) })
}

func TestTestGauge(t *testing.T) {
	g := metrics.NewTestGauge()
	child := g.With("class", "voice")
	child.Set(4)
	child.Add(-1)
	assert.Equal(t, 3.0, g.Value("class", "voice"))
	assert.Equal(t, 3.0, metrics.GaugeValue(child))
}

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := metrics.NewFactory(metrics.WithRegistry(reg))
	cv := f.NewCounterVec(prometheus.CounterOpts{Name: "sent_total"}, []string{"class"})
	gv := f.NewGaugeVec(prometheus.GaugeOpts{Name: "queue_length"}, []string{"class"})

	c := metrics.NewPromCounter(cv).With("class", "voice")
	c.Add(2)
	c.Add(3)
	g := metrics.NewPromGauge(gv).With("class", "voice")
	g.Set(7)
	g.Add(-2)

	assert.Equal(t, 5.0, testutil.ToFloat64(cv.WithLabelValues("voice")))
	assert.Equal(t, 5.0, testutil.ToFloat64(gv.WithLabelValues("voice")))
	assert.Nil(t, metrics.NewPromCounter(nil))
	assert.Nil(t, metrics.NewPromGauge(nil))
}
