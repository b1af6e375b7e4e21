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

// Package queue contains the per class packet queues of the scheduler.
//
// The scheduler only relies on the Queue interface. Two implementations are
// provided: a bounded FIFO that drops at the tail and a RED queue that drops
// early with a probability growing with the average queue length.
package queue

import (
	"errors"

	"github.com/scionproto/hfsc/pkg/private/serrors"
)

var (
	// ErrQueueFull indicates that the queue limit is reached and the packet
	// was dropped.
	ErrQueueFull = errors.New("queue full")
	// ErrEarlyDrop indicates that the packet was dropped by active queue
	// management before the limit was reached. It matches ErrQueueFull.
	ErrEarlyDrop = serrors.Wrap("early drop", ErrQueueFull)
)

// Packet is anything with a length in bytes.
type Packet interface {
	Len() int
}

// Queue is a packet queue owned by a single class.
type Queue interface {
	// Enqueue appends the packet. If the packet is rejected, an error is
	// returned and the queue is unchanged.
	Enqueue(pkt Packet) error
	// Dequeue removes and returns the head packet, or nil if the queue is
	// empty.
	Dequeue() Packet
	// Peek returns the head packet without removing it, or nil if the queue
	// is empty.
	Peek() Packet
	// Purge drops all packets and returns how many packets and bytes were
	// dropped.
	Purge() (packets, bytes int)
	// Len returns the number of queued packets.
	Len() int
}
