// Copyright (c) Arista Networks, Inc. 2024
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chashmap

import (
	"math"
	"strings"
	"testing"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestStrategyString(t *testing.T) {
	require.Equal(t, "integral", StrategyIntegral.String())
	require.Equal(t, "float", StrategyFloat.String())
	require.Equal(t, "address", StrategyAddress.String())
	require.Equal(t, "Strategy(0)", Strategy(0).String())
}

func TestHashIntegral(t *testing.T) {
	require.Equal(t, uint64(7), HashIntegral(15, 37))
	require.Equal(t, uint64(0), HashIntegral(15, 30))
	require.Equal(t, uint64(14), HashIntegral(15, 14))
	require.Equal(t, uint64(0), HashIntegral(1, 12345))

	// 2^64 - 1 is a multiple of 15.
	require.Equal(t, uint64(0), HashInteger(15, int64(-1)))
	require.Equal(t, uint64(0), HashInteger(15, int8(-1)))
	require.Equal(t, HashIntegral(15, math.MaxUint64-1), HashInteger(15, int32(-2)))
	require.Equal(t, uint64(3), HashInteger(15, uint16(18)))
}

func TestHashFloat(t *testing.T) {
	require.Equal(t, math.Float64bits(1.0)%15, HashFloat64(15, 1.0))
	require.Equal(t, uint64(0), HashFloat64(15, 0))
	require.Equal(t, math.Float64bits(math.Copysign(0, -1))%15,
		HashFloat64(15, math.Copysign(0, -1)))
	require.Equal(t, uint64(math.Float32bits(2.5))%31, HashFloat32(31, 2.5))
}

func TestHashAddress(t *testing.T) {
	// (4096*6) % 30 = 6
	require.Equal(t, uint64(6), HashAddress(15, 0x1000))
	require.Equal(t, uint64(0), HashAddress(15, 0))
	// (5*6) % 30 = 0
	require.Equal(t, uint64(0), HashAddress(15, 5))
	// (7*6) % 60 = 42, 42 % 30 = 12
	require.Equal(t, uint64(12), HashAddress(30, 7))
}

func TestHashInRange(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		capacity := uint64(r.Intn(1<<12) + 1)
		key := r.Uint64()
		require.Less(t, HashIntegral(capacity, key), capacity)
		require.Less(t, HashInteger(capacity, int64(key)), capacity)
		require.Less(t, HashFloat64(capacity, math.Float64frombits(key)), capacity)
		require.Less(t, HashAddress(capacity, uintptr(key)), capacity)
	}
}

type (
	myFloat  float32
	myString string
	toggle   bool
)

func TestNewHasher(t *testing.T) {
	t.Run("integral", func(t *testing.T) {
		h, err := newHasher[int16]()
		require.NoError(t, err)
		require.Equal(t, StrategyIntegral, h.strategy)
		require.Equal(t, HashInteger(15, int16(-300)), h.hash(15, -300))

		hu, err := newHasher[uintptr]()
		require.NoError(t, err)
		require.Equal(t, StrategyIntegral, hu.strategy)
		require.Equal(t, uint64(2), hu.hash(10, 42))
	})
	t.Run("bool", func(t *testing.T) {
		h, err := newHasher[toggle]()
		require.NoError(t, err)
		require.Equal(t, StrategyIntegral, h.strategy)
		require.Equal(t, uint64(1), h.hash(15, true))
		require.Equal(t, uint64(0), h.hash(15, false))
		require.False(t, h.equal(true, false))
	})
	t.Run("float", func(t *testing.T) {
		h, err := newHasher[myFloat]()
		require.NoError(t, err)
		require.Equal(t, StrategyFloat, h.strategy)
		require.Equal(t, HashFloat32(15, 1.25), h.hash(15, 1.25))
		nan := myFloat(math.NaN())
		require.True(t, h.equal(nan, nan))
		require.False(t, h.equal(0, myFloat(math.Copysign(0, -1))))
	})
	t.Run("pointer", func(t *testing.T) {
		h, err := newHasher[*int]()
		require.NoError(t, err)
		require.Equal(t, StrategyAddress, h.strategy)
		p := new(int)
		require.Equal(t, HashAddress(15, uintptr(unsafe.Pointer(p))), h.hash(15, p))
		require.Equal(t, uint64(0), h.hash(15, nil))
	})
	t.Run("unsafe pointer", func(t *testing.T) {
		h, err := newHasher[unsafe.Pointer]()
		require.NoError(t, err)
		require.Equal(t, StrategyAddress, h.strategy)
		p := unsafe.Pointer(new(int))
		require.Equal(t, HashAddress(15, uintptr(p)), h.hash(15, p))
	})
	t.Run("chan", func(t *testing.T) {
		h, err := newHasher[chan int]()
		require.NoError(t, err)
		require.Equal(t, StrategyAddress, h.strategy)
		a, b := make(chan int), make(chan int)
		require.True(t, h.equal(a, a))
		require.False(t, h.equal(a, b))
	})
	t.Run("string", func(t *testing.T) {
		h, err := newHasher[myString]()
		require.NoError(t, err)
		require.Equal(t, StrategyAddress, h.strategy)
		s := myString(strings.Clone("abc"))
		other := myString(strings.Clone("abc"))
		require.Equal(t,
			HashAddress(15, uintptr(unsafe.Pointer(unsafe.StringData(string(s))))), h.hash(15, s))
		require.True(t, h.equal(s, s))
		require.False(t, h.equal(s, other))
		require.False(t, h.equal(s, s[:2]))

		require.Equal(t, uint64(0), h.hash(15, ""))
		require.Equal(t, uint64(0), h.hash(15, s[3:]))
		require.True(t, h.equal("", s[:0]))
		require.True(t, h.equal(other[1:1], s[3:]))
		require.False(t, h.equal("", s))
	})
	t.Run("unsupported", func(t *testing.T) {
		_, err := newHasher[struct{ a int }]()
		require.True(t, errors.Is(err, ErrUnsupportedKey))
		_, err = newHasher[[4]byte]()
		require.True(t, errors.Is(err, ErrUnsupportedKey))
		_, err = newHasher[complex128]()
		require.True(t, errors.Is(err, ErrUnsupportedKey))
		_, err = newHasher[any]()
		require.True(t, errors.Is(err, ErrUnsupportedKey))
		require.Contains(t, err.Error(), "interface")
	})
}
