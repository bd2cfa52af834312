// Copyright (c) Arista Networks, Inc. 2024
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package alloc accounts for the objects a chashmap.HashMap acquires.
//
// Go manages the memory itself, but a HashMap asks an Allocator before
// it creates each bucket table, entry and order-list node, and hands
// back the returned Deallocator when the object is released. This makes
// allocation failures representable (an Allocator may refuse) and makes
// leaks and double frees observable (see CountingAllocator).
package alloc

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrOutOfMemory is returned, possibly wrapped, when an Allocator
// refuses an allocation.
var ErrOutOfMemory = errors.New("out of memory")

// Class identifies the kind of object being allocated.
type Class uint8

const (
	// ClassTable is a bucket table: one chain head per bucket.
	ClassTable Class = iota
	// ClassEntry is a single key/value entry.
	ClassEntry
	// ClassNode is an entry-order list node.
	ClassNode

	numClasses
)

// Classes lists every allocation class.
var Classes = [...]Class{ClassTable, ClassEntry, ClassNode}

func (c Class) String() string {
	switch c {
	case ClassTable:
		return "table"
	case ClassEntry:
		return "entry"
	case ClassNode:
		return "node"
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// Allocator accounts for an object of the given class and size in
// bytes. On success the returned Deallocator must be called exactly
// once when the object is released.
type Allocator interface {
	Allocate(class Class, size uint64) (Deallocator, error)
}

// Deallocator releases a single allocation.
type Deallocator interface {
	Deallocate()
}

// DeallocatorFunc adapts a function to the Deallocator interface.
type DeallocatorFunc func()

// Deallocate calls f.
func (f DeallocatorFunc) Deallocate() {
	f()
}

var noopDeallocator = DeallocatorFunc(func() {})

// HeapAllocator leaves memory management to the Go runtime. It never
// refuses an allocation.
type HeapAllocator struct{}

var _ Allocator = HeapAllocator{}

// Allocate implements Allocator.
func (HeapAllocator) Allocate(Class, uint64) (Deallocator, error) {
	return noopDeallocator, nil
}
