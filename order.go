// Copyright (c) Arista Networks, Inc. 2024
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chashmap

import (
	"unsafe"

	"github.com/aristanetworks/chashmap/alloc"
)

// node threads one entry into the order list. The node does not own its
// entry; the entry's chain does.
type node[K comparable, V any] struct {
	entry      *entry[K, V]
	prev, next *node[K, V]
	de         alloc.Deallocator
}

func nodeSize[K comparable, V any]() uint64 {
	return uint64(unsafe.Sizeof(node[K, V]{}))
}

// orderList links every live entry in insertion order, independent of
// which bucket the entry lives in. Growth and Release walk it; nothing
// else does.
type orderList[K comparable, V any] struct {
	head, tail *node[K, V]
}

// pushBack appends n at the tail.
func (l *orderList[K, V]) pushBack(n *node[K, V]) {
	if l.tail == nil {
		l.pushFront(n)
		return
	}
	l.insertAfter(l.tail, n)
}

// pushFront inserts n at the head.
func (l *orderList[K, V]) pushFront(n *node[K, V]) {
	if l.head == nil {
		l.head, l.tail = n, n
		n.prev, n.next = nil, nil
		return
	}
	l.insertBefore(l.head, n)
}

// insertAfter links n directly after at.
func (l *orderList[K, V]) insertAfter(at, n *node[K, V]) {
	n.prev = at
	if at.next == nil {
		n.next = nil
		l.tail = n
	} else {
		n.next = at.next
		at.next.prev = n
	}
	at.next = n
}

// insertBefore links n directly before at.
func (l *orderList[K, V]) insertBefore(at, n *node[K, V]) {
	n.next = at
	if at.prev == nil {
		n.prev = nil
		l.head = n
	} else {
		n.prev = at.prev
		at.prev.next = n
	}
	at.prev = n
}

// remove unlinks n. It does not release n or its entry.
func (l *orderList[K, V]) remove(n *node[K, V]) {
	if n.prev == nil {
		l.head = n.next
	} else {
		n.prev.next = n.next
	}
	if n.next == nil {
		l.tail = n.prev
	} else {
		n.next.prev = n.prev
	}
	n.prev, n.next = nil, nil
}

// each calls fn for every node from head to tail until fn returns false.
// fn may unlink or release the node it is given.
func (l *orderList[K, V]) each(fn func(n *node[K, V]) bool) {
	for n := l.head; n != nil; {
		next := n.next
		if !fn(n) {
			return
		}
		n = next
	}
}
