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
	"errors"

	"github.com/scionproto/hfsc/pkg/hfsc/queue"
	"github.com/scionproto/hfsc/pkg/private/serrors"
)

var (
	// ErrQueueFull indicates that the packet was dropped by the class queue.
	ErrQueueFull = queue.ErrQueueFull
	// ErrBusyClass indicates that a class with children cannot be destroyed.
	ErrBusyClass = errors.New("class has children")
	// ErrUnknownClass indicates that no class has the given id.
	ErrUnknownClass = errors.New("unknown class")
	// ErrNoDefaultClass indicates that a packet for an unknown or interior
	// class was dropped since there is no default class.
	ErrNoDefaultClass = errors.New("no default class")

	// ErrConfig is matched by all errors of an invalid class configuration.
	ErrConfig = errors.New("invalid class configuration")

	ErrInvalidCurve      = serrors.Wrap("invalid service curve", ErrConfig)
	ErrTableFull         = serrors.Wrap("class table full", ErrConfig)
	ErrNoParent          = serrors.Wrap("parent class not found", ErrConfig)
	ErrParentNoLinkShare = serrors.Wrap("parent class needs a link-sharing curve", ErrConfig)
	ErrNoCurve           = serrors.Wrap("class needs a real-time or link-sharing curve",
		ErrConfig)
	ErrRootExists      = serrors.Wrap("root class exists", ErrConfig)
	ErrInteriorDefault = serrors.Wrap("default class must be a leaf", ErrConfig)
)

// invariant panics if cond is false. A violated invariant means the
// scheduler state is corrupt.
func invariant(cond bool, msg string, errCtx ...any) {
	if !cond {
		panic(serrors.New(msg, errCtx...))
	}
}
