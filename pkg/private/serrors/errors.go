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

// Package serrors provides errors that carry key/value context. Errors
// created with serrors support errors.Is and errors.As: an error returned by
// Wrap matches its cause, an error returned by Join matches both the base
// error and the cause.
//
// Context is rendered in the error string as {k1=v1; k2=v2} with the keys
// sorted, and is emitted as separate fields when the error is logged with
// zap.
package serrors

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type pair struct {
	key   string
	value any
}

type info struct {
	pairs []pair
	cause error
}

func newInfo(cause error, errCtx []any) info {
	pairs := make([]pair, 0, len(errCtx)/2)
	for i := 0; i+1 < len(errCtx); i += 2 {
		pairs = append(pairs, pair{key: fmt.Sprint(errCtx[i]), value: errCtx[i+1]})
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].key < pairs[b].key
	})
	return info{pairs: pairs, cause: cause}
}

func (i info) suffix(sb *strings.Builder) {
	if len(i.pairs) != 0 {
		sb.WriteString(" {")
		for n, p := range i.pairs {
			if n != 0 {
				sb.WriteString("; ")
			}
			fmt.Fprintf(sb, "%s=%v", p.key, p.value)
		}
		sb.WriteString("}")
	}
	if i.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(i.cause.Error())
	}
}

func (i info) marshal(enc zapcore.ObjectEncoder) error {
	if i.cause != nil {
		if m, ok := i.cause.(zapcore.ObjectMarshaler); ok {
			if err := enc.AddObject("cause", m); err != nil {
				return err
			}
		} else {
			enc.AddString("cause", i.cause.Error())
		}
	}
	for _, p := range i.pairs {
		zap.Any(p.key, p.value).AddTo(enc)
	}
	return nil
}

// msgError is an error with a plain message, optional context and an
// optional cause.
type msgError struct {
	info
	msg string
}

func (e *msgError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.msg)
	e.info.suffix(&sb)
	return sb.String()
}

func (e *msgError) Unwrap() error {
	return e.cause
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (e *msgError) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("msg", e.msg)
	return e.info.marshal(enc)
}

// New creates an error with the given message and context.
func New(msg string, errCtx ...any) error {
	return &msgError{info: newInfo(nil, errCtx), msg: msg}
}

// Wrap returns an error with the given message and context that wraps
// cause. errors.Is(Wrap(msg, cause), cause) is true.
func Wrap(msg string, cause error, errCtx ...any) error {
	return &msgError{info: newInfo(cause, errCtx), msg: msg}
}

// joinedError decorates a base error, typically a sentinel, with context and
// an optional cause.
type joinedError struct {
	info
	base error
}

func (e *joinedError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.base.Error())
	e.info.suffix(&sb)
	return sb.String()
}

func (e *joinedError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.base}
	}
	return []error{e.base, e.cause}
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (e *joinedError) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("msg", e.base.Error())
	return e.info.marshal(enc)
}

// Join returns an error that matches err and, if not nil, cause, and carries
// the given context. Join returns nil if both err and cause are nil.
func Join(err, cause error, errCtx ...any) error {
	if err == nil && cause == nil {
		return nil
	}
	if err == nil {
		return Wrap("error", cause, errCtx...)
	}
	return &joinedError{info: newInfo(cause, errCtx), base: err}
}

// List is a slice of errors.
type List []error

// Error implements the error interface.
func (e List) Error() string {
	s := make([]string, 0, len(e))
	for _, err := range e {
		s = append(s, err.Error())
	}
	return fmt.Sprintf("[ %s ]", strings.Join(s, "; "))
}

// ToError returns nil for an empty list and the list otherwise.
func (e List) ToError() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Unwrap allows errors.Is and errors.As to inspect the list members.
func (e List) Unwrap() []error {
	return e
}

// MarshalLogArray implements zapcore.ArrayMarshaler.
func (e List) MarshalLogArray(ae zapcore.ArrayEncoder) error {
	for _, err := range e {
		if m, ok := err.(zapcore.ObjectMarshaler); ok {
			if err := ae.AppendObject(m); err != nil {
				return err
			}
		} else {
			ae.AppendString(err.Error())
		}
	}
	return nil
}
