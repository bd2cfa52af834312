// Modifications copyright (c) Arista Networks, Inc. 2024
// Underlying
// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chashmap provides the HashMap type, a resizable hash table
// with separate chaining. The hash function is not supplied by the
// user: one of three built-in strategies is selected from the key type
// when the map is created (see Strategy).
//
// The following are the user's responsibility:
//   - A HashMap is not safe for concurrent use. Distinct maps may be
//     used from distinct goroutines.
//   - Pointer, channel and string keys are compared by identity. Two
//     strings with equal contents but separate storage are different
//     keys; struct keys must be stored by pointer.
//   - Float keys are compared bitwise: +0 and -0 are different keys.
//   - All empty strings are the same key, wherever they point.
//   - Release must be called once the map is no longer needed when the
//     allocator tracks memory (see package alloc).
package chashmap

// A HashMap is an array of buckets. Each bucket holds a singly linked
// chain of the entries whose keys hash to that bucket, new entries
// appended at the tail.
//
// Independently of the buckets, every entry is threaded onto a doubly
// linked order list in insertion order. Growth walks this list to
// rehash and Release walks it to free every entry and node together.
// Nodes persist across growth, so the order never changes.
//
// When count/capacity reaches 0.75 at the start of a Put, the table is
// replaced by one twice as large and every entry is relinked into it
// before the Put proceeds.

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/aristanetworks/chashmap/alloc"
)

// HashMap maps keys of type K to values of type V.
type HashMap[K comparable, V any] struct {
	count    int // # live entries == nodes in order == entries in table
	table    table[K, V]
	order    orderList[K, V]
	hasher   hasher[K]
	alloc    alloc.Allocator
	logger   *zap.Logger
	released bool
}

// New returns an empty HashMap with DefaultCapacity buckets, or the
// capacity given by WithInitialCapacity. The hash strategy is chosen
// from K; New fails with ErrUnsupportedKey if K has none. If the
// allocator refuses the bucket table New fails with ErrOutOfMemory.
func New[K comparable, V any](opts ...Option) (*HashMap[K, V], error) {
	o := options{
		capacity:  DefaultCapacity,
		allocator: defaultAllocator,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.capacity <= 0 {
		return nil, errors.Wrapf(ErrInvalidCapacity, "capacity %d", o.capacity)
	}
	h, err := newHasher[K]()
	if err != nil {
		return nil, err
	}
	m := &HashMap[K, V]{hasher: h, alloc: o.allocator, logger: o.logger}
	if m.table, err = m.newTable(o.capacity); err != nil {
		return nil, err
	}
	return m, nil
}

// Len returns the number of distinct keys in m.
func (m *HashMap[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return m.count
}

// Cap returns the number of buckets in m.
func (m *HashMap[K, V]) Cap() int {
	if m == nil {
		return 0
	}
	return len(m.table.heads)
}

// Strategy returns the hash strategy selected for K, or 0 for a nil map.
func (m *HashMap[K, V]) Strategy() Strategy {
	if m == nil {
		return 0
	}
	return m.hasher.strategy
}

// Get returns the value associated with key and true if that key is in
// m, otherwise it returns the zero value of V and false.
func (m *HashMap[K, V]) Get(key K) (V, bool) {
	if m == nil || m.count == 0 {
		var zeroV V
		return zeroV, false
	}
	return m.lookup(key)
}

// Put associates key with value in m, replacing any previous value.
//
// If m is at its load factor the table is doubled first. Put fails with
// an error matching ErrOutOfMemory if the allocator refuses the new
// table, entry or node; m is then exactly as it was before the call,
// capacity included, and Put may be retried.
func (m *HashMap[K, V]) Put(key K, value V) error {
	if m == nil {
		// Unlike Get, there is no sensible default: the hash strategy
		// and allocator are chosen by New.
		panic("Put called on nil HashMap")
	}
	if m.released {
		return ErrReleased
	}
	var replaced *table[K, V]
	if overLoadFactor(m.count, len(m.table.heads)) {
		old, err := m.grow()
		if err != nil {
			return errors.Wrapf(err, "grow from %d buckets", len(m.table.heads))
		}
		replaced = &old
	}
	if err := m.insert(key, value); err != nil {
		if replaced != nil {
			m.undoGrow(*replaced)
		}
		return err
	}
	if replaced != nil {
		replaced.de.Deallocate()
	}
	return nil
}

// insert stores value under key, threading a new entry onto the order
// list. On failure the table holds exactly what it held before.
func (m *HashMap[K, V]) insert(key K, value V) error {
	e, slot, err := m.insertOrUpdate(key, value)
	if err != nil || e == nil {
		return err
	}
	de, err := m.alloc.Allocate(alloc.ClassNode, nodeSize[K, V]())
	if err != nil {
		m.allocFailed(alloc.ClassNode, err)
		*slot = nil
		e.de.Deallocate()
		return errors.Wrap(err, "allocate order node")
	}
	n := &node[K, V]{entry: e, de: de}
	e.node = n
	m.order.pushBack(n)
	m.count++
	return nil
}

// Release frees every entry together with its order node, then the
// bucket table. m holds no entries afterwards and Put returns
// ErrReleased. Calling Release again does nothing.
func (m *HashMap[K, V]) Release() {
	if m == nil || m.released {
		return
	}
	m.order.each(func(n *node[K, V]) bool {
		e := n.entry
		e.next, e.node = nil, nil
		e.de.Deallocate()
		n.entry, n.prev, n.next = nil, nil, nil
		n.de.Deallocate()
		return true
	})
	m.order = orderList[K, V]{}
	m.table.de.Deallocate()
	m.table = table[K, V]{}
	m.count = 0
	m.released = true
}
