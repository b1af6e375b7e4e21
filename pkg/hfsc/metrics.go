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
	"github.com/prometheus/client_golang/prometheus"

	"github.com/scionproto/hfsc/pkg/metrics"
)

// Label values of the metrics.
const (
	CriterionRealTime  = "realtime"
	CriterionLinkShare = "linkshare"

	DropQueueFull = "queue_full"
	DropEarly     = "early"
	DropPurge     = "purge"
	DropNoClass   = "no_class"
)

// Metrics are the scheduler metrics. All fields are optional.
type Metrics struct {
	// SentPackets is labeled with class and criterion.
	SentPackets metrics.Counter
	// SentBytes is labeled with class and criterion.
	SentBytes metrics.Counter
	// DroppedPackets is labeled with class and reason.
	DroppedPackets metrics.Counter
	// QueueLength is labeled with class.
	QueueLength metrics.Gauge
}

// NewMetrics creates the prometheus metrics of the scheduler.
func NewMetrics(opts ...metrics.Option) *Metrics {
	f := metrics.NewFactory(opts...)
	return &Metrics{
		SentPackets: metrics.NewPromCounter(f.NewCounterVec(prometheus.CounterOpts{
			Name: "hfsc_sent_packets_total",
			Help: "Number of packets sent per class and criterion.",
		}, []string{"class", "criterion"})),
		SentBytes: metrics.NewPromCounter(f.NewCounterVec(prometheus.CounterOpts{
			Name: "hfsc_sent_bytes_total",
			Help: "Number of bytes sent per class and criterion.",
		}, []string{"class", "criterion"})),
		DroppedPackets: metrics.NewPromCounter(f.NewCounterVec(prometheus.CounterOpts{
			Name: "hfsc_dropped_packets_total",
			Help: "Number of packets dropped per class and reason.",
		}, []string{"class", "reason"})),
		QueueLength: metrics.NewPromGauge(f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hfsc_queue_length",
			Help: "Number of packets queued per class.",
		}, []string{"class"})),
	}
}

// classMetrics are the metrics of one class with the labels applied.
type classMetrics struct {
	sentRT, sentLS   metrics.Counter
	bytesRT, bytesLS metrics.Counter
	dropFull         metrics.Counter
	dropEarly        metrics.Counter
	dropPurge        metrics.Counter
	queueLength      metrics.Gauge
}

func newClassMetrics(m *Metrics, class string) classMetrics {
	if m == nil {
		return classMetrics{}
	}
	sent := metrics.CounterWith(m.SentPackets, "class", class)
	sentBytes := metrics.CounterWith(m.SentBytes, "class", class)
	drops := metrics.CounterWith(m.DroppedPackets, "class", class)
	return classMetrics{
		sentRT:      metrics.CounterWith(sent, "criterion", CriterionRealTime),
		sentLS:      metrics.CounterWith(sent, "criterion", CriterionLinkShare),
		bytesRT:     metrics.CounterWith(sentBytes, "criterion", CriterionRealTime),
		bytesLS:     metrics.CounterWith(sentBytes, "criterion", CriterionLinkShare),
		dropFull:    metrics.CounterWith(drops, "reason", DropQueueFull),
		dropEarly:   metrics.CounterWith(drops, "reason", DropEarly),
		dropPurge:   metrics.CounterWith(drops, "reason", DropPurge),
		queueLength: metrics.GaugeWith(m.QueueLength, "class", class),
	}
}

func (m classMetrics) sent(realtime bool, length int) {
	if realtime {
		metrics.CounterInc(m.sentRT)
		metrics.CounterAdd(m.bytesRT, float64(length))
		return
	}
	metrics.CounterInc(m.sentLS)
	metrics.CounterAdd(m.bytesLS, float64(length))
}
