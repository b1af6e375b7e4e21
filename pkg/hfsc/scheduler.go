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

// Package hfsc implements a hierarchical fair service curve packet
// scheduler.
//
// Classes form a tree. Packets are queued at the leaves. Every class can be
// configured with up to three service curves:
//
//   - The real-time curve guarantees the leaf a minimum service with a
//     bounded delay. Leaves are served by the real-time criterion in order of
//     their deadlines as soon as they are eligible.
//   - The link-sharing curve defines the share of the excess bandwidth of
//     the parent. Children are served in order of their virtual times.
//   - The upper-limit curve caps the link-sharing service of the class.
//
// A Scheduler is not safe for concurrent use. None of its methods block.
//
// Usage:
//
//	s, err := hfsc.New(clock.System{})
//	root, err := s.CreateClass(hfsc.ClassConfig{
//		Name:      "root",
//		LinkShare: &curve.ServiceCurve{M2: 100_000_000},
//	})
//	voice, err := s.CreateClass(hfsc.ClassConfig{
//		Name:     "voice",
//		Parent:   root,
//		RealTime: &curve.ServiceCurve{M1: 2_000_000, D: 5 * time.Millisecond, M2: 500_000},
//	})
//	err = s.Enqueue(voice, pkt)
//	pkt, ok := s.Dequeue(clock.System{}.Now())
package hfsc

import (
	"errors"

	"github.com/scionproto/hfsc/pkg/hfsc/clock"
	"github.com/scionproto/hfsc/pkg/hfsc/curve"
	"github.com/scionproto/hfsc/pkg/hfsc/queue"
	"github.com/scionproto/hfsc/pkg/log"
	"github.com/scionproto/hfsc/pkg/metrics"
	"github.com/scionproto/hfsc/pkg/private/serrors"
)

// Scheduler is a HFSC scheduler for one link.
type Scheduler struct {
	clock  clock.Source
	conv   curve.Converter
	logger log.Logger

	// classes is indexed by ClassID. Index 0 is never used.
	classes  []*class
	nClasses int
	root     *class
	def      *class
	eligible eligibleList
	packets  int
	// pollCache is the class selected by the last Poll. It is consumed by
	// the next Dequeue.
	pollCache *class
	slack     uint64

	metrics      *Metrics
	noClassDrops metrics.Counter
}

// New creates a scheduler that reads the time for enqueue and class
// operations from clk. The times passed to Dequeue and Poll must be of the
// same clock.
func New(clk clock.Source, opts ...Option) (*Scheduler, error) {
	if clk == nil {
		return nil, serrors.New("clock must not be nil")
	}
	if clk.Frequency() == 0 {
		return nil, serrors.New("clock frequency must not be zero")
	}
	o := applyOptions(opts)
	if o.maxClasses <= 0 {
		return nil, serrors.New("invalid class table size", "max_classes", o.maxClasses)
	}
	if o.timerSlack < 0 {
		return nil, serrors.New("negative timer slack", "timer_slack", o.timerSlack)
	}
	s := &Scheduler{
		clock:    clk,
		conv:     curve.Converter{Frequency: clk.Frequency()},
		logger:   o.logger,
		classes:  make([]*class, o.maxClasses+1),
		eligible: newEligibleList(),
		slack:    clock.Ticks(clk.Frequency(), o.timerSlack),
		metrics:  o.metrics,
	}
	if o.metrics != nil {
		s.noClassDrops = metrics.CounterWith(o.metrics.DroppedPackets,
			"class", "", "reason", DropNoClass)
	}
	return s, nil
}

// Converter returns the curve converter for the clock of the scheduler.
func (s *Scheduler) Converter() curve.Converter {
	return s.conv
}

// CreateClass creates a class and returns its id. On error, no class is
// created.
func (s *Scheduler) CreateClass(cfg ClassConfig) (ClassID, error) {
	rsc, err := s.internalCurve(cfg.RealTime, "rt")
	if err != nil {
		return NoClass, err
	}
	fsc, err := s.internalCurve(cfg.LinkShare, "ls")
	if err != nil {
		return NoClass, err
	}
	usc, err := s.internalCurve(cfg.UpperLimit, "ul")
	if err != nil {
		return NoClass, err
	}
	if rsc == nil && fsc == nil {
		return NoClass, serrors.Join(ErrNoCurve, nil, "class", cfg.Name)
	}

	var parent *class
	if cfg.Parent == NoClass {
		if s.root != nil {
			return NoClass, serrors.Join(ErrRootExists, nil, "class", cfg.Name)
		}
	} else {
		if parent = s.lookup(cfg.Parent); parent == nil {
			return NoClass, serrors.Join(ErrNoParent, nil,
				"class", cfg.Name, "parent", cfg.Parent)
		}
		if parent.fsc == nil {
			return NoClass, serrors.Join(ErrParentNoLinkShare, nil,
				"class", cfg.Name, "parent", parent.name)
		}
		if parent == s.def {
			return NoClass, serrors.Join(ErrInteriorDefault, nil,
				"class", cfg.Name, "parent", parent.name)
		}
	}
	id, ok := s.allocID()
	if !ok {
		return NoClass, serrors.Join(ErrTableFull, nil,
			"class", cfg.Name, "max_classes", len(s.classes)-1)
	}

	q := cfg.Queue
	if q == nil {
		q = queue.NewFIFO(cfg.QueueLimit)
	}
	cl := newClass(id, cfg.Name, q)
	cl.metrics = newClassMetrics(s.metrics, cfg.Name)
	if rsc != nil {
		cl.rsc = rsc
		cl.deadline = curve.NewRuntime(*rsc, 0, 0)
		cl.eligible = cl.deadline
	}
	if fsc != nil {
		cl.fsc = fsc
		cl.virtual = curve.NewRuntime(*fsc, 0, 0)
	}
	if usc != nil {
		cl.usc = usc
		cl.ulimit = curve.NewRuntime(*usc, 0, 0)
	}

	if parent != nil {
		// Interior classes do not hold packets.
		if !parent.isParent() && parent.q.Len() > 0 {
			s.purgeQueue(parent, s.clock.Now())
		}
		cl.parent = parent
		parent.children = append(parent.children, cl)
	} else {
		s.root = cl
	}
	s.classes[id] = cl
	s.nClasses++
	s.pollCache = nil
	if cfg.Default {
		s.def = cl
	}
	s.logger.Debug("Class created", "class", cl.name, "id", id,
		"parent", cfg.Parent, "rt", curveString(cfg.RealTime),
		"ls", curveString(cfg.LinkShare), "ul", curveString(cfg.UpperLimit))
	return id, nil
}

// internalCurve validates and converts sc. It returns nil for a nil or
// zero curve.
func (s *Scheduler) internalCurve(sc *curve.ServiceCurve, kind string) (*curve.Internal, error) {
	if sc == nil || sc.IsZero() {
		return nil, nil
	}
	if err := s.conv.Check(*sc); err != nil {
		return nil, serrors.Join(ErrInvalidCurve, err, "curve", kind)
	}
	c := s.conv.ToInternal(*sc)
	return &c, nil
}

func (s *Scheduler) allocID() (ClassID, bool) {
	for i := 1; i < len(s.classes); i++ {
		if s.classes[i] == nil {
			return ClassID(i), true
		}
	}
	return NoClass, false
}

func (s *Scheduler) lookup(id ClassID) *class {
	if id == NoClass || int(id) >= len(s.classes) {
		return nil
	}
	return s.classes[id]
}

// DestroyClass purges and removes the class. A class with children cannot be
// destroyed.
func (s *Scheduler) DestroyClass(id ClassID) error {
	cl := s.lookup(id)
	if cl == nil {
		return serrors.Join(ErrUnknownClass, nil, "id", id)
	}
	if cl.isParent() {
		return serrors.Join(ErrBusyClass, nil,
			"class", cl.name, "children", len(cl.children))
	}
	s.purgeQueue(cl, s.clock.Now())
	invariant(!cl.elLink.linked && !cl.actLink.linked,
		"destroyed class still linked", "class", cl.id)

	if cl.parent != nil {
		cl.parent.removeChild(cl)
	} else {
		s.root = nil
	}
	if s.def == cl {
		s.def = nil
	}
	s.classes[id] = nil
	s.nClasses--
	s.pollCache = nil
	metrics.GaugeSet(cl.metrics.queueLength, 0)
	s.logger.Debug("Class destroyed", "class", cl.name, "id", id)
	return nil
}

// ModifyClass changes the curves of a class. A nil curve is left unchanged,
// a zero curve removes the curve. Removing a real-time or link-sharing curve
// of a backlogged class purges its queue first. Changed curves are anchored
// at the current time and the current service of the class.
func (s *Scheduler) ModifyClass(id ClassID, rt, ls, ul *curve.ServiceCurve) error {
	cl := s.lookup(id)
	if cl == nil {
		return serrors.Join(ErrUnknownClass, nil, "id", id)
	}
	rsc, err := s.internalCurve(rt, "rt")
	if err != nil {
		return serrors.Join(err, nil, "class", cl.name)
	}
	fsc, err := s.internalCurve(ls, "ls")
	if err != nil {
		return serrors.Join(err, nil, "class", cl.name)
	}
	usc, err := s.internalCurve(ul, "ul")
	if err != nil {
		return serrors.Join(err, nil, "class", cl.name)
	}
	removeRT := rt != nil && rt.IsZero()
	removeLS := ls != nil && ls.IsZero()
	removeUL := ul != nil && ul.IsZero()

	hasRT := rsc != nil || (cl.rsc != nil && !removeRT)
	hasLS := fsc != nil || (cl.fsc != nil && !removeLS)
	if !hasRT && !hasLS {
		return serrors.Join(ErrNoCurve, nil, "class", cl.name)
	}
	if !hasLS && cl.isParent() {
		return serrors.Join(ErrParentNoLinkShare, nil, "class", cl.name)
	}

	now := s.clock.Now()
	s.pollCache = nil
	if removeLS && cl.fsc != nil {
		s.purgeQueue(cl, now)
	}
	if removeRT {
		// The packets stay, they are served by link sharing.
		if cl.rsc != nil && cl.q.Len() > 0 {
			s.eligible.remove(cl)
		}
		cl.rsc = nil
	}
	if removeLS {
		cl.fsc = nil
	}
	if removeUL {
		cl.usc = nil
	}

	newRT := rsc != nil && cl.rsc == nil
	if rsc != nil {
		cl.rsc = rsc
		cl.deadline = curve.NewRuntime(*rsc, now, cl.cumul)
		s.resetEligible(cl)
	}
	newLS := fsc != nil && cl.fsc == nil
	if fsc != nil {
		cl.fsc = fsc
		// Anchor at the current point of the old virtual curve, so that the
		// virtual time stays continuous.
		cl.virtual = curve.NewRuntime(*fsc, subSat(cl.vt+cl.vtoff, cl.vtadj), cl.total)
	}
	if usc != nil {
		cl.usc = usc
		cl.ulimit = curve.NewRuntime(*usc, now, cl.total)
	}
	if removeUL || usc != nil {
		// Lag absorbed under the old limit does not apply to the new one.
		cl.myfadj = 0
		cl.myf = 0
		if cl.usc != nil {
			cl.myf = cl.ulimit.Y2X(cl.total)
		}
		if cl.parent != nil {
			updateF(cl)
		}
	}

	if head := cl.q.Peek(); head != nil && !cl.isParent() {
		next := uint64(head.Len())
		switch {
		case newRT:
			s.initED(cl, next, now)
		case rsc != nil:
			s.updateED(cl, next)
		}
		switch {
		case newLS:
			s.initVF(cl, now)
		case cl.fsc != nil:
			s.updateVF(cl, 0, now)
		}
	}
	s.logger.Debug("Class modified", "class", cl.name, "id", id,
		"rt", curveString(rt), "ls", curveString(ls), "ul", curveString(ul))
	return nil
}

// SetDefaultClass sets the class that receives the packets for unknown and
// interior classes. NoClass removes the default class.
func (s *Scheduler) SetDefaultClass(id ClassID) error {
	if id == NoClass {
		s.def = nil
		return nil
	}
	cl := s.lookup(id)
	if cl == nil {
		return serrors.Join(ErrUnknownClass, nil, "id", id)
	}
	if cl.isParent() {
		return serrors.Join(ErrInteriorDefault, nil, "class", cl.name)
	}
	s.def = cl
	return nil
}

// DefaultClass returns the default class, or NoClass.
func (s *Scheduler) DefaultClass() ClassID {
	if s.def == nil {
		return NoClass
	}
	return s.def.id
}

// Enqueue queues pkt at the class id. Packets for an unknown or an interior
// class are queued at the default class. If the queue rejects the packet, the
// error of the queue is returned and the scheduler state is unchanged.
func (s *Scheduler) Enqueue(id ClassID, pkt queue.Packet) error {
	cl := s.lookup(id)
	if cl == nil || cl.isParent() {
		if cl = s.def; cl == nil {
			metrics.CounterInc(s.noClassDrops)
			return serrors.Join(ErrNoDefaultClass, nil, "id", id)
		}
	}
	if err := cl.q.Enqueue(pkt); err != nil {
		cl.dropped(1, pkt.Len())
		if errors.Is(err, queue.ErrEarlyDrop) {
			metrics.CounterInc(cl.metrics.dropEarly)
		} else {
			metrics.CounterInc(cl.metrics.dropFull)
		}
		return serrors.Join(err, nil, "class", cl.name)
	}
	s.packets++
	metrics.GaugeSet(cl.metrics.queueLength, float64(cl.q.Len()))
	if cl.q.Len() == 1 {
		s.setActive(cl, uint64(pkt.Len()), s.clock.Now())
	}
	return nil
}

// Dequeue removes and returns the next packet to send at now. It returns
// false if no class may send at now. If Poll was called before, Dequeue
// returns the packet returned by Poll.
func (s *Scheduler) Dequeue(now uint64) (queue.Packet, bool) {
	if s.packets == 0 {
		return nil, false
	}
	var cl *class
	var realtime bool
	if s.pollCache != nil {
		cl = s.pollCache
		s.pollCache = nil
		realtime = cl.rsc != nil && cl.e <= now
	} else if cl, realtime = s.choose(now); cl == nil {
		return nil, false
	}

	pkt := cl.q.Dequeue()
	invariant(pkt != nil, "selected class has no packets", "class", cl.id)
	length := uint64(pkt.Len())
	s.packets--
	cl.stats.sentPackets++
	cl.stats.sentBytes += length

	s.updateVF(cl, length, now)
	if realtime {
		cl.cumul += length
	}
	if head := cl.q.Peek(); head != nil {
		if cl.rsc != nil {
			if realtime {
				s.updateED(cl, uint64(head.Len()))
			} else {
				s.updateD(cl, uint64(head.Len()))
			}
		}
	} else {
		s.setPassive(cl)
	}
	cl.metrics.sent(realtime, pkt.Len())
	metrics.GaugeSet(cl.metrics.queueLength, float64(cl.q.Len()))
	return pkt, true
}

// Poll returns the packet that Dequeue would return at now without removing
// it.
func (s *Scheduler) Poll(now uint64) (queue.Packet, bool) {
	if s.packets == 0 {
		return nil, false
	}
	cl, _ := s.choose(now)
	if cl == nil {
		return nil, false
	}
	s.pollCache = cl
	return cl.q.Peek(), true
}

// choose selects the class to serve at now. The real-time criterion has
// priority, otherwise the tree is walked down along the children with the
// smallest virtual time that fit.
func (s *Scheduler) choose(now uint64) (*class, bool) {
	if cl := s.eligible.minDeadline(now); cl != nil {
		return cl, true
	}
	cl := s.root
	if cl == nil {
		return nil, false
	}
	for cl.isParent() {
		if cl = cl.active.firstFit(now); cl == nil {
			return nil, false
		}
		if cl.parent.cvtmin < cl.vt {
			cl.parent.cvtmin = cl.vt
		}
	}
	if cl.q.Len() == 0 {
		return nil, false
	}
	return cl, false
}

// Purge drops the packets of the class and of all its descendants.
func (s *Scheduler) Purge(id ClassID) error {
	cl := s.lookup(id)
	if cl == nil {
		return serrors.Join(ErrUnknownClass, nil, "id", id)
	}
	s.pollCache = nil
	s.purgeTree(cl, s.clock.Now())
	return nil
}

func (s *Scheduler) purgeTree(cl *class, now uint64) {
	for _, c := range cl.children {
		s.purgeTree(c, now)
	}
	s.purgeQueue(cl, now)
}

// purgeQueue drops the packets of cl and makes it passive as if the queue
// had drained.
func (s *Scheduler) purgeQueue(cl *class, now uint64) {
	if cl.q.Len() == 0 {
		return
	}
	packets, bytes := cl.q.Purge()
	s.packets -= packets
	cl.dropped(packets, bytes)
	metrics.CounterAdd(cl.metrics.dropPurge, float64(packets))
	metrics.GaugeSet(cl.metrics.queueLength, 0)
	s.updateVF(cl, 0, now)
	s.setPassive(cl)
	if s.pollCache == cl {
		s.pollCache = nil
	}
}

// Len returns the number of queued packets.
func (s *Scheduler) Len() int {
	return s.packets
}

// Classes returns the ids of all classes in ascending order.
func (s *Scheduler) Classes() []ClassID {
	ids := make([]ClassID, 0, s.nClasses)
	for i, cl := range s.classes {
		if cl != nil {
			ids = append(ids, ClassID(i))
		}
	}
	return ids
}

// Root returns the id of the root class, or NoClass.
func (s *Scheduler) Root() ClassID {
	if s.root == nil {
		return NoClass
	}
	return s.root.id
}

func curveString(sc *curve.ServiceCurve) string {
	if sc == nil {
		return "none"
	}
	return sc.String()
}
