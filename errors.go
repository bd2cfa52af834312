// Copyright (c) Arista Networks, Inc. 2024
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chashmap

import (
	"github.com/cockroachdb/errors"

	"github.com/aristanetworks/chashmap/alloc"
)

var (
	// ErrOutOfMemory is returned, possibly wrapped, when the allocator
	// refuses a bucket table, entry or node. The HashMap is left as it
	// was before the failing call.
	ErrOutOfMemory = alloc.ErrOutOfMemory

	// ErrInvalidCapacity is returned by New for a starting capacity
	// that is not positive.
	ErrInvalidCapacity = errors.New("invalid capacity")

	// ErrUnsupportedKey is returned by New when no built-in hash
	// strategy handles the key type.
	ErrUnsupportedKey = errors.New("unsupported key type")

	// ErrReleased is returned by Put after Release.
	ErrReleased = errors.New("hashmap released")
)
