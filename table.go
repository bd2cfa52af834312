// Modifications copyright (c) Arista Networks, Inc. 2024
// Underlying
// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chashmap

import (
	"math"
	"unsafe"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/aristanetworks/chashmap/alloc"
)

// entry is one key/value pair. It is owned by the chain it is linked
// into and referenced by exactly one order list node.
type entry[K comparable, V any] struct {
	key   K
	value V
	next  *entry[K, V] // next entry in the same bucket
	node  *node[K, V]
	de    alloc.Deallocator
}

// table is the bucket array: one chain head per bucket index. It is
// never resized in place; growth replaces it.
type table[K comparable, V any] struct {
	heads []*entry[K, V]
	de    alloc.Deallocator
}

// maxBuckets is the largest table whose size in bytes fits in an int.
// Doubling it cannot overflow.
var maxBuckets = math.MaxInt / int(unsafe.Sizeof(uintptr(0)))

func (m *HashMap[K, V]) newTable(capacity int) (table[K, V], error) {
	if capacity > maxBuckets {
		err := errors.Wrapf(ErrOutOfMemory, "table of %d buckets exceeds %d", capacity, maxBuckets)
		m.allocFailed(alloc.ClassTable, err)
		return table[K, V]{}, err
	}
	size := uint64(capacity) * uint64(unsafe.Sizeof((*entry[K, V])(nil)))
	de, err := m.alloc.Allocate(alloc.ClassTable, size)
	if err != nil {
		m.allocFailed(alloc.ClassTable, err)
		return table[K, V]{}, errors.Wrapf(err, "allocate table of %d buckets", capacity)
	}
	return table[K, V]{heads: make([]*entry[K, V], capacity), de: de}, nil
}

// bucket returns the index of key's chain.
func (m *HashMap[K, V]) bucket(key K) uint64 {
	return m.hasher.hash(uint64(len(m.table.heads)), key)
}

// findSlot walks key's chain. If an entry with key exists the returned
// link points to it; otherwise the link is the nil tail of the chain,
// where a new entry for key belongs.
func (m *HashMap[K, V]) findSlot(key K) **entry[K, V] {
	slot := &m.table.heads[m.bucket(key)]
	for *slot != nil {
		if m.hasher.equal((*slot).key, key) {
			break
		}
		slot = &(*slot).next
	}
	return slot
}

// insertOrUpdate stores value under key. An existing entry is updated in
// place and nil is returned. Otherwise a new entry is allocated and
// appended to the chain; it is returned together with the link that now
// holds it, so the caller can undo the insertion.
func (m *HashMap[K, V]) insertOrUpdate(key K, value V) (*entry[K, V], **entry[K, V], error) {
	slot := m.findSlot(key)
	if e := *slot; e != nil {
		e.value = value
		return nil, nil, nil
	}
	de, err := m.alloc.Allocate(alloc.ClassEntry, uint64(unsafe.Sizeof(entry[K, V]{})))
	if err != nil {
		m.allocFailed(alloc.ClassEntry, err)
		return nil, nil, errors.Wrap(err, "allocate entry")
	}
	e := &entry[K, V]{key: key, value: value, de: de}
	*slot = e
	return e, slot, nil
}

// lookup returns the value stored under key.
func (m *HashMap[K, V]) lookup(key K) (V, bool) {
	for e := m.table.heads[m.bucket(key)]; e != nil; e = e.next {
		if m.hasher.equal(e.key, key) {
			return e.value, true
		}
	}
	var zeroV V
	return zeroV, false
}

// relink appends an existing entry to the tail of its chain in the
// current table. Used by growth, where keys are known to be distinct.
func (m *HashMap[K, V]) relink(e *entry[K, V]) {
	e.next = nil
	slot := &m.table.heads[m.bucket(e.key)]
	for *slot != nil {
		slot = &(*slot).next
	}
	*slot = e
}

func (m *HashMap[K, V]) allocFailed(class alloc.Class, err error) {
	m.logger.Warn("hashmap allocation failed",
		zap.Stringer("class", class),
		zap.Int("count", m.count),
		zap.Int("capacity", len(m.table.heads)),
		zap.Error(err))
}
