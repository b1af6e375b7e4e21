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
	"github.com/scionproto/hfsc/pkg/hfsc/curve"
	"github.com/scionproto/hfsc/pkg/hfsc/queue"
)

// ClassID identifies a class of a Scheduler. Ids are dense and reused after
// a class is destroyed.
type ClassID uint32

// NoClass is the invalid ClassID. It is the parent of the root class.
const NoClass ClassID = 0

// ClassConfig describes a class to create.
type ClassConfig struct {
	// Name is used in logs and metrics.
	Name string
	// Parent is the parent class, or NoClass for the root class.
	Parent ClassID
	// RealTime is the real-time curve. Nil or zero means none.
	RealTime *curve.ServiceCurve
	// LinkShare is the link-sharing curve. Nil or zero means none.
	LinkShare *curve.ServiceCurve
	// UpperLimit is the upper-limit curve. Nil or zero means none.
	UpperLimit *curve.ServiceCurve
	// QueueLimit is the limit of the default FIFO queue. Zero selects
	// queue.DefaultLimit. It is ignored if Queue is set.
	QueueLimit int
	// Queue is the queue of the class. If nil, a FIFO is used.
	Queue queue.Queue
	// Default makes the class the default class.
	Default bool
}

type class struct {
	id       ClassID
	name     string
	parent   *class
	children []*class
	q        queue.Queue

	// rsc, fsc and usc are the real-time, link-sharing and upper-limit
	// curves. Nil if not configured.
	rsc *curve.Internal
	fsc *curve.Internal
	usc *curve.Internal

	deadline curve.Runtime
	eligible curve.Runtime
	virtual  curve.Runtime
	ulimit   curve.Runtime

	// cumul is the number of bytes served by the real-time criterion, total
	// the number of bytes served including those of all descendants.
	cumul uint64
	total uint64

	e uint64
	d uint64

	vt    uint64
	vtoff uint64
	vtadj uint64
	// cvtmin is the minimum vt of the children selected in this backlog
	// period, cvtmax the maximum vt of children that went passive in it.
	cvtmin uint64
	cvtmax uint64

	f      uint64
	myf    uint64
	myfadj uint64
	cfmin  uint64

	// nactive is the number of active children, or 1 for an active leaf.
	nactive      int
	vtperiod     uint64
	parentperiod uint64

	elLink  link
	actLink link
	// active holds the active children ordered by vt.
	active activeList

	stats   counters
	metrics classMetrics
}

type counters struct {
	sentPackets    uint64
	sentBytes      uint64
	droppedPackets uint64
	droppedBytes   uint64
	periods        uint64
}

func newClass(id ClassID, name string, q queue.Queue) *class {
	return &class{
		id:     id,
		name:   name,
		q:      q,
		active: newActiveList(),
	}
}

func (cl *class) isParent() bool {
	return len(cl.children) > 0
}

func (cl *class) removeChild(child *class) {
	for i, c := range cl.children {
		if c == child {
			cl.children = append(cl.children[:i], cl.children[i+1:]...)
			return
		}
	}
	invariant(false, "child not found", "parent", cl.id, "child", child.id)
}

func (cl *class) dropped(packets, bytes int) {
	cl.stats.droppedPackets += uint64(packets)
	cl.stats.droppedBytes += uint64(bytes)
}
