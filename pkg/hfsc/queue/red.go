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
package queue

import (
	"math/rand/v2"

	"github.com/scionproto/hfsc/pkg/private/serrors"
)

// REDConfig configures random early detection. Thresholds are in packets.
type REDConfig struct {
	// Limit is the hard queue limit. Zero selects DefaultLimit.
	Limit int
	// MinThreshold is the average queue length where early drops start.
	MinThreshold float64
	// MaxThreshold is the average queue length where every packet is
	// dropped.
	MaxThreshold float64
	// MaxProbability is the drop probability at MaxThreshold.
	MaxProbability float64
	// Weight is the weight of the current length in the average.
	Weight float64
	// Seed seeds the random source.
	Seed uint64
}

// DefaultREDConfig returns the classic parameters: thresholds at 5 and 15
// packets, a maximum probability of 1/10 and a weight of 1/512.
func DefaultREDConfig() REDConfig {
	return REDConfig{
		Limit:          DefaultLimit,
		MinThreshold:   5,
		MaxThreshold:   15,
		MaxProbability: 0.1,
		Weight:         1.0 / 512,
	}
}

// Validate checks that the parameters are usable.
func (c REDConfig) Validate() error {
	switch {
	case c.Limit < 0:
		return serrors.New("negative limit", "limit", c.Limit)
	case c.MinThreshold < 0 || c.MaxThreshold <= c.MinThreshold:
		return serrors.New("invalid thresholds",
			"min", c.MinThreshold, "max", c.MaxThreshold)
	case c.MaxProbability <= 0 || c.MaxProbability > 1:
		return serrors.New("probability out of range", "max_p", c.MaxProbability)
	case c.Weight <= 0 || c.Weight > 1:
		return serrors.New("weight out of range", "weight", c.Weight)
	}
	return nil
}

// RED is a FIFO with random early detection.
type RED struct {
	fifo *FIFO
	cfg  REDConfig
	rnd  *rand.Rand
	// avg is the moving average of the queue length.
	avg float64
	// count is the number of packets accepted since the last early drop
	// while the average was between the thresholds, -1 outside.
	count int

	EarlyDrops  int
	ForcedDrops int
}

// NewRED creates a RED queue. The configuration must be valid.
func NewRED(cfg REDConfig) (*RED, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RED{
		fifo:  NewFIFO(cfg.Limit),
		cfg:   cfg,
		rnd:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		count: -1,
	}, nil
}

// Enqueue updates the average and either accepts or drops pkt.
func (q *RED) Enqueue(pkt Packet) error {
	w := q.cfg.Weight
	q.avg = (1-w)*q.avg + w*float64(q.fifo.Len())

	switch {
	case q.avg < q.cfg.MinThreshold:
		q.count = -1
	case q.avg >= q.cfg.MaxThreshold:
		q.count = 0
		q.ForcedDrops++
		return serrors.Join(ErrEarlyDrop, nil, "avg", q.avg)
	default:
		q.count++
		if q.dropEarly() {
			q.count = 0
			q.EarlyDrops++
			return serrors.Join(ErrEarlyDrop, nil, "avg", q.avg)
		}
	}
	return q.fifo.Enqueue(pkt)
}

// dropEarly spreads the drops uniformly: the probability grows with the
// number of packets accepted since the last drop.
func (q *RED) dropEarly() bool {
	pb := q.cfg.MaxProbability * (q.avg - q.cfg.MinThreshold) /
		(q.cfg.MaxThreshold - q.cfg.MinThreshold)
	denom := 1 - float64(q.count)*pb
	if denom <= 0 {
		return true
	}
	return q.rnd.Float64() < pb/denom
}

// Dequeue removes the head packet.
func (q *RED) Dequeue() Packet {
	return q.fifo.Dequeue()
}

// Peek returns the head packet.
func (q *RED) Peek() Packet {
	return q.fifo.Peek()
}

// Purge drops all packets and resets the average.
func (q *RED) Purge() (int, int) {
	q.avg = 0
	q.count = -1
	return q.fifo.Purge()
}

// Len returns the number of queued packets.
func (q *RED) Len() int {
	return q.fifo.Len()
}

// Average returns the current average queue length.
func (q *RED) Average() float64 {
	return q.avg
}
