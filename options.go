// Copyright (c) Arista Networks, Inc. 2024
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chashmap

import (
	"go.uber.org/zap"

	"github.com/aristanetworks/chashmap/alloc"
)

// DefaultCapacity is the number of buckets a new HashMap starts with.
const DefaultCapacity = 15

// defaultAllocator is used when New is not given WithAllocator.
var defaultAllocator alloc.Allocator = alloc.HeapAllocator{}

type options struct {
	capacity  int
	allocator alloc.Allocator
	logger    *zap.Logger
}

// Option configures a HashMap created by New.
type Option func(*options)

// WithInitialCapacity sets the starting number of buckets. It must be
// positive.
func WithInitialCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithAllocator accounts the HashMap's tables, entries and nodes with a.
func WithAllocator(a alloc.Allocator) Option {
	return func(o *options) {
		if a != nil {
			o.allocator = a
		}
	}
}

// WithLogger sets the logger used for growth and allocation failure
// events.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
