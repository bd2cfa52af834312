// Copyright (c) Arista Networks, Inc. 2024
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package alloc

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// LimitAllocator refuses any allocation that would take the bytes in
// use above a fixed budget.
type LimitAllocator struct {
	upstream Allocator
	limit    uint64
	inuse    atomic.Uint64
}

var _ Allocator = new(LimitAllocator)

// NewLimitAllocator wraps upstream with a budget of limit bytes. A nil
// upstream is a HeapAllocator.
func NewLimitAllocator(upstream Allocator, limit uint64) *LimitAllocator {
	if upstream == nil {
		upstream = HeapAllocator{}
	}
	return &LimitAllocator{upstream: upstream, limit: limit}
}

// Allocate implements Allocator.
func (l *LimitAllocator) Allocate(class Class, size uint64) (Deallocator, error) {
	for {
		cur := l.inuse.Load()
		if cur+size < cur || cur+size > l.limit {
			return nil, errors.Wrapf(ErrOutOfMemory,
				"%s allocation of %d bytes: %d of %d bytes in use", class, size, cur, l.limit)
		}
		if l.inuse.CompareAndSwap(cur, cur+size) {
			break
		}
	}
	de, err := l.upstream.Allocate(class, size)
	if err != nil {
		l.inuse.Add(^(size - 1))
		return nil, err
	}
	return DeallocatorFunc(func() {
		l.inuse.Add(^(size - 1))
		de.Deallocate()
	}), nil
}

// InUse returns the bytes currently accounted against the budget.
func (l *LimitAllocator) InUse() uint64 {
	return l.inuse.Load()
}
