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

// link is the intrusive link of a class in a sortedList.
type link struct {
	prev   *class
	next   *class
	linked bool
}

// sortedList is an intrusive doubly linked list of classes in ascending
// order of key. Entries with equal keys keep their insertion order.
type sortedList struct {
	head *class
	tail *class
	len  int
	link func(*class) *link
	key  func(*class) uint64
}

// insert adds cl after the last entry with a key not larger than the key of
// cl. The search starts at the tail.
func (l *sortedList) insert(cl *class) {
	invariant(!l.link(cl).linked, "class already linked", "class", cl.id)
	k := l.key(cl)
	p := l.tail
	for p != nil && l.key(p) > k {
		p = l.link(p).prev
	}
	l.insertAfter(cl, p)
}

// insertAfter adds cl after p, or at the head if p is nil.
func (l *sortedList) insertAfter(cl, p *class) {
	lk := l.link(cl)
	lk.linked = true
	lk.prev = p
	if p == nil {
		lk.next = l.head
		l.head = cl
	} else {
		lk.next = l.link(p).next
		l.link(p).next = cl
	}
	if lk.next == nil {
		l.tail = cl
	} else {
		l.link(lk.next).prev = cl
	}
	l.len++
}

func (l *sortedList) remove(cl *class) {
	lk := l.link(cl)
	invariant(lk.linked, "class not linked", "class", cl.id)
	if lk.prev == nil {
		l.head = lk.next
	} else {
		l.link(lk.prev).next = lk.next
	}
	if lk.next == nil {
		l.tail = lk.prev
	} else {
		l.link(lk.next).prev = lk.prev
	}
	*lk = link{}
	l.len--
}

// update restores the order after the key of cl changed. Only the
// neighbours are checked if the entry is still in place.
func (l *sortedList) update(cl *class) {
	lk := l.link(cl)
	invariant(lk.linked, "class not linked", "class", cl.id)
	k := l.key(cl)
	if (lk.prev == nil || l.key(lk.prev) <= k) && (lk.next == nil || k <= l.key(lk.next)) {
		return
	}
	l.remove(cl)
	l.insert(cl)
}

func (l *sortedList) next(cl *class) *class {
	return l.link(cl).next
}

// eligibleList holds the classes with a real-time curve that are backlogged,
// ordered by eligible time.
type eligibleList struct {
	sortedList
}

func newEligibleList() eligibleList {
	return eligibleList{sortedList{
		link: func(cl *class) *link { return &cl.elLink },
		key:  func(cl *class) uint64 { return cl.e },
	}}
}

// minDeadline returns the class with the smallest deadline among the
// classes eligible at now. Equal deadlines are broken by the lower id.
func (l *eligibleList) minDeadline(now uint64) *class {
	var best *class
	for p := l.head; p != nil && p.e <= now; p = l.next(p) {
		if best == nil || p.d < best.d || (p.d == best.d && p.id < best.id) {
			best = p
		}
	}
	return best
}

// activeList holds the active children of a class, ordered by virtual time.
type activeList struct {
	sortedList
}

func newActiveList() activeList {
	return activeList{sortedList{
		link: func(cl *class) *link { return &cl.actLink },
		key:  func(cl *class) uint64 { return cl.vt },
	}}
}

// firstFit returns the child with the smallest virtual time that fits at
// now.
func (l *activeList) firstFit(now uint64) *class {
	for p := l.head; p != nil; p = l.next(p) {
		if p.f <= now {
			return p
		}
	}
	return nil
}

// last returns the child with the largest virtual time.
func (l *activeList) last() *class {
	return l.tail
}
