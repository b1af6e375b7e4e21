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
	"github.com/scionproto/hfsc/pkg/private/serrors"
)

// DefaultLimit is the queue limit used if none is configured.
const DefaultLimit = 50

// FIFO is a bounded first-in first-out queue that drops at the tail.
type FIFO struct {
	// buf is a ring buffer, head is the index of the oldest packet.
	buf   []Packet
	head  int
	n     int
	bytes int
	limit int
}

// NewFIFO creates a FIFO that holds at most limit packets. A limit of 0
// selects DefaultLimit.
func NewFIFO(limit int) *FIFO {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &FIFO{limit: limit}
}

// Enqueue appends pkt or returns ErrQueueFull.
func (q *FIFO) Enqueue(pkt Packet) error {
	if q.n >= q.limit {
		return serrors.Join(ErrQueueFull, nil, "limit", q.limit)
	}
	if q.n == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.n)%len(q.buf)] = pkt
	q.n++
	q.bytes += pkt.Len()
	return nil
}

func (q *FIFO) grow() {
	size := max(2*len(q.buf), 8)
	size = min(size, q.limit)
	buf := make([]Packet, size)
	for i := 0; i < q.n; i++ {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}

// Dequeue removes the head packet.
func (q *FIFO) Dequeue() Packet {
	if q.n == 0 {
		return nil
	}
	pkt := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	q.bytes -= pkt.Len()
	return pkt
}

// Peek returns the head packet.
func (q *FIFO) Peek() Packet {
	if q.n == 0 {
		return nil
	}
	return q.buf[q.head]
}

// Purge drops all packets.
func (q *FIFO) Purge() (int, int) {
	packets, bytes := q.n, q.bytes
	clear(q.buf)
	q.head, q.n, q.bytes = 0, 0, 0
	return packets, bytes
}

// Len returns the number of queued packets.
func (q *FIFO) Len() int {
	return q.n
}

// Bytes returns the number of queued bytes.
func (q *FIFO) Bytes() int {
	return q.bytes
}

// Limit returns the maximum number of packets.
func (q *FIFO) Limit() int {
	return q.limit
}
