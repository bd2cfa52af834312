// Copyright (c) Arista Networks, Inc. 2024
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package alloc

import (
	"sync/atomic"
)

// Stats is a snapshot of the allocations of one class.
type Stats struct {
	Allocs      uint64
	Deallocs    uint64
	InUseBytes  uint64
	DoubleFrees uint64
}

// InUse returns the number of live objects.
func (s Stats) InUse() uint64 {
	return s.Allocs - s.Deallocs
}

type classCounters struct {
	allocs      atomic.Uint64
	deallocs    atomic.Uint64
	inuseBytes  atomic.Uint64
	doubleFrees atomic.Uint64
}

// CountingAllocator records every allocation and deallocation made
// through it, per class. A Deallocator called more than once is counted
// as a double free and not forwarded upstream again.
type CountingAllocator struct {
	upstream Allocator
	counters [numClasses]classCounters
}

var _ Allocator = new(CountingAllocator)

// NewCountingAllocator wraps upstream. A nil upstream is a HeapAllocator.
func NewCountingAllocator(upstream Allocator) *CountingAllocator {
	if upstream == nil {
		upstream = HeapAllocator{}
	}
	return &CountingAllocator{upstream: upstream}
}

// Allocate implements Allocator.
func (c *CountingAllocator) Allocate(class Class, size uint64) (Deallocator, error) {
	de, err := c.upstream.Allocate(class, size)
	if err != nil {
		return nil, err
	}
	cc := &c.counters[class]
	cc.allocs.Add(1)
	cc.inuseBytes.Add(size)

	var freed atomic.Bool
	return DeallocatorFunc(func() {
		if !freed.CompareAndSwap(false, true) {
			cc.doubleFrees.Add(1)
			return
		}
		cc.deallocs.Add(1)
		cc.inuseBytes.Add(^(size - 1))
		de.Deallocate()
	}), nil
}

// Stats returns the counters for class.
func (c *CountingAllocator) Stats(class Class) Stats {
	cc := &c.counters[class]
	return Stats{
		Allocs:      cc.allocs.Load(),
		Deallocs:    cc.deallocs.Load(),
		InUseBytes:  cc.inuseBytes.Load(),
		DoubleFrees: cc.doubleFrees.Load(),
	}
}

// Balanced reports whether every allocation has been deallocated exactly
// once.
func (c *CountingAllocator) Balanced() bool {
	for _, class := range Classes {
		s := c.Stats(class)
		if s.InUse() != 0 || s.InUseBytes != 0 || s.DoubleFrees != 0 {
			return false
		}
	}
	return true
}
