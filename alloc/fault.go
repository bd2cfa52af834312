// Copyright (c) Arista Networks, Inc. 2024
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package alloc

import (
	"github.com/cockroachdb/errors"
)

// FaultAllocator refuses the allocations selected by a predicate. It is
// meant for exercising allocation failure paths.
type FaultAllocator struct {
	upstream Allocator
	fail     func(class Class, size uint64) bool
}

var _ Allocator = new(FaultAllocator)

// NewFaultAllocator wraps upstream. Each allocation is refused when fail
// returns true for it. A nil upstream is a HeapAllocator.
func NewFaultAllocator(upstream Allocator, fail func(class Class, size uint64) bool) *FaultAllocator {
	if upstream == nil {
		upstream = HeapAllocator{}
	}
	return &FaultAllocator{upstream: upstream, fail: fail}
}

// SetFault replaces the predicate. A nil predicate refuses nothing.
func (f *FaultAllocator) SetFault(fail func(class Class, size uint64) bool) {
	f.fail = fail
}

// Allocate implements Allocator.
func (f *FaultAllocator) Allocate(class Class, size uint64) (Deallocator, error) {
	if f.fail != nil && f.fail(class, size) {
		return nil, errors.Wrapf(ErrOutOfMemory, "injected %s allocation failure", class)
	}
	return f.upstream.Allocate(class, size)
}

// FailAfter returns a predicate that allows n allocations of class and
// refuses every later one. Other classes are never refused.
func FailAfter(class Class, n int) func(Class, uint64) bool {
	return func(c Class, _ uint64) bool {
		if c != class {
			return false
		}
		if n > 0 {
			n--
			return false
		}
		return true
	}
}
