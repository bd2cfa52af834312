// Copyright (c) Arista Networks, Inc. 2024
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chashmap

import (
	"fmt"
	"math"
	"reflect"
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

// Strategy is the built-in hash function a HashMap selected for its key
// type.
type Strategy uint8

const (
	// StrategyIntegral hashes integer and boolean keys by remainder.
	StrategyIntegral Strategy = iota + 1
	// StrategyFloat hashes floating-point keys by their bit pattern.
	StrategyFloat
	// StrategyAddress hashes pointer-like keys by address. Keys are
	// compared by identity, never by content.
	StrategyAddress
)

func (s Strategy) String() string {
	switch s {
	case StrategyIntegral:
		return "integral"
	case StrategyFloat:
		return "float"
	case StrategyAddress:
		return "address"
	}
	return fmt.Sprintf("Strategy(%d)", uint8(s))
}

// HashIntegral returns key mod capacity. capacity must be non-zero.
func HashIntegral(capacity, key uint64) uint64 {
	return key % capacity
}

// HashInteger hashes any integer key with HashIntegral. Signed keys are
// taken as their 64-bit two's complement, so negative keys land in range.
func HashInteger[T constraints.Integer](capacity uint64, key T) uint64 {
	return HashIntegral(capacity, uint64(key))
}

// HashFloat32 hashes the IEEE 754 bit pattern of key. Equal values with
// different bit patterns (+0 and -0) hash differently.
func HashFloat32(capacity uint64, key float32) uint64 {
	return HashIntegral(capacity, uint64(math.Float32bits(key)))
}

// HashFloat64 hashes the IEEE 754 bit pattern of key.
func HashFloat64(capacity uint64, key float64) uint64 {
	return HashIntegral(capacity, math.Float64bits(key))
}

// HashAddress spreads an address over capacity buckets as
// ((addr * 6) mod (2 * capacity)) mod capacity.
func HashAddress(capacity uint64, addr uintptr) uint64 {
	return (uint64(addr) * 6 % (2 * capacity)) % capacity
}

// hasher is the strategy selected for one key type: the bucket index
// function and the matching key equality.
type hasher[K comparable] struct {
	strategy Strategy
	hash     func(capacity uint64, key K) uint64
	equal    func(a, b K) bool
}

// newHasher selects the strategy for K from its underlying kind, so
// named types behave like the type they are defined on.
func newHasher[K comparable]() (hasher[K], error) {
	t := reflect.TypeOf((*K)(nil)).Elem()
	switch t.Kind() {
	case reflect.Int:
		return integralHasher(keyBits[K, int]), nil
	case reflect.Int8:
		return integralHasher(keyBits[K, int8]), nil
	case reflect.Int16:
		return integralHasher(keyBits[K, int16]), nil
	case reflect.Int32:
		return integralHasher(keyBits[K, int32]), nil
	case reflect.Int64:
		return integralHasher(keyBits[K, int64]), nil
	case reflect.Uint:
		return integralHasher(keyBits[K, uint]), nil
	case reflect.Uint8, reflect.Bool:
		return integralHasher(keyBits[K, uint8]), nil
	case reflect.Uint16:
		return integralHasher(keyBits[K, uint16]), nil
	case reflect.Uint32:
		return integralHasher(keyBits[K, uint32]), nil
	case reflect.Uint64:
		return integralHasher(keyBits[K, uint64]), nil
	case reflect.Uintptr:
		return integralHasher(keyBits[K, uintptr]), nil
	case reflect.Float32:
		return floatHasher(float32Bits[K]), nil
	case reflect.Float64:
		return floatHasher(float64Bits[K]), nil
	case reflect.Pointer, reflect.UnsafePointer, reflect.Chan:
		return hasher[K]{
			strategy: StrategyAddress,
			hash: func(capacity uint64, key K) uint64 {
				return HashAddress(capacity, pointerAddr(key))
			},
			equal: func(a, b K) bool { return a == b },
		}, nil
	case reflect.String:
		return hasher[K]{
			strategy: StrategyAddress,
			hash: func(capacity uint64, key K) uint64 {
				return HashAddress(capacity, stringAddr(key))
			},
			equal: sameString[K],
		}, nil
	}
	return hasher[K]{}, errors.Wrapf(ErrUnsupportedKey,
		"%s has kind %s; key by pointer instead", t, t.Kind())
}

func integralHasher[K comparable](bits func(K) uint64) hasher[K] {
	return hasher[K]{
		strategy: StrategyIntegral,
		hash: func(capacity uint64, key K) uint64 {
			return HashIntegral(capacity, bits(key))
		},
		equal: func(a, b K) bool { return a == b },
	}
}

// floatHasher compares keys bitwise so that equality agrees with the
// hash: +0 and -0 are different keys and a NaN can be found again.
func floatHasher[K comparable](bits func(K) uint64) hasher[K] {
	return hasher[K]{
		strategy: StrategyFloat,
		hash: func(capacity uint64, key K) uint64 {
			return HashIntegral(capacity, bits(key))
		},
		equal: func(a, b K) bool { return bits(a) == bits(b) },
	}
}

// keyBits reads key as T, which must have the same underlying kind as K.
func keyBits[K any, T constraints.Integer](key K) uint64 {
	return uint64(*(*T)(unsafe.Pointer(&key)))
}

func float32Bits[K any](key K) uint64 {
	return uint64(math.Float32bits(*(*float32)(unsafe.Pointer(&key))))
}

func float64Bits[K any](key K) uint64 {
	return math.Float64bits(*(*float64)(unsafe.Pointer(&key)))
}

// pointerAddr returns the address held by a pointer-shaped key.
func pointerAddr[K any](key K) uintptr {
	return uintptr(*(*unsafe.Pointer)(unsafe.Pointer(&key)))
}

// stringAddr returns the address of the string's data, or 0 for an empty
// string, whose data pointer is unspecified.
func stringAddr[K any](key K) uintptr {
	s := *(*string)(unsafe.Pointer(&key))
	if len(s) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.StringData(s)))
}

// sameString reports whether a and b share the same backing storage.
// All empty strings are the same key.
func sameString[K any](a, b K) bool {
	sa := *(*string)(unsafe.Pointer(&a))
	sb := *(*string)(unsafe.Pointer(&b))
	if len(sa) != len(sb) {
		return false
	}
	return len(sa) == 0 || unsafe.StringData(sa) == unsafe.StringData(sb)
}
