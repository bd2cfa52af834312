// Modifications copyright (c) Arista Networks, Inc. 2024
// Underlying
// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chashmap

import (
	"go.uber.org/zap"
)

// Maximum average chain length before the table doubles is 0.75.
// Represent as loadFactorNum/loadFactorDen, to allow integer math.
const (
	loadFactorNum = 3
	loadFactorDen = 4
)

// overLoadFactor reports whether count entries in capacity buckets is at
// or above the load factor.
func overLoadFactor(count, capacity int) bool {
	return uint64(count)*loadFactorDen >= uint64(capacity)*loadFactorNum
}

// grow doubles the table and relinks every entry into it, walking the
// order list so that entries sharing a bucket keep their relative order.
// It returns the replaced table, which the caller either releases or
// hands back to undoGrow.
//
// The only allocation is the new table. If it is refused the map is left
// untouched; once it succeeds relinking cannot fail, so growth is never
// observed half done. Order list nodes are not touched and insertion
// order survives.
func (m *HashMap[K, V]) grow() (table[K, V], error) {
	oldCap := len(m.table.heads)
	newTable, err := m.newTable(oldCap * 2)
	if err != nil {
		return table[K, V]{}, err
	}
	old := m.table
	m.table = newTable
	m.relinkAll()

	m.logger.Debug("hashmap grew",
		zap.Int("old", oldCap),
		zap.Int("new", len(m.table.heads)),
		zap.Int("count", m.count))
	return old, nil
}

// undoGrow reinstates old, the table replaced by grow, and releases the
// grown one. Chains are rebuilt in insertion order, which is the order
// they held before growing.
func (m *HashMap[K, V]) undoGrow(old table[K, V]) {
	grown := m.table
	clear(old.heads)
	m.table = old
	m.relinkAll()
	grown.de.Deallocate()

	m.logger.Debug("hashmap growth undone",
		zap.Int("old", len(grown.heads)),
		zap.Int("new", len(m.table.heads)),
		zap.Int("count", m.count))
}

func (m *HashMap[K, V]) relinkAll() {
	m.order.each(func(n *node[K, V]) bool {
		m.relink(n.entry)
		return true
	})
}
