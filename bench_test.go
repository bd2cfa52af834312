// Copyright (c) Arista Networks, Inc. 2024
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chashmap

import (
	"testing"

	"github.com/alphadose/haxmap"
	"github.com/cornelk/hashmap"
	"golang.org/x/exp/rand"
)

const benchmarkItemCount = 1024

// benchmarkKeys returns 0..benchmarkItemCount-1 in a fixed shuffled
// order.
func benchmarkKeys() []uintptr {
	keys := make([]uintptr, benchmarkItemCount)
	for i := range keys {
		keys[i] = uintptr(i)
	}
	r := rand.New(rand.NewSource(42))
	r.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	return keys
}

func BenchmarkPutHashMap(b *testing.B) {
	keys := benchmarkKeys()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		m, _ := New[uintptr, uintptr]()
		for _, k := range keys {
			if err := m.Put(k, k); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func BenchmarkPutGoMap(b *testing.B) {
	keys := benchmarkKeys()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		m := make(map[uintptr]uintptr, DefaultCapacity)
		for _, k := range keys {
			m[k] = k
		}
	}
}

func BenchmarkPutHaxMap(b *testing.B) {
	keys := benchmarkKeys()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		m := haxmap.New[uintptr, uintptr]()
		for _, k := range keys {
			m.Set(k, k)
		}
	}
}

func BenchmarkPutCornelkMap(b *testing.B) {
	keys := benchmarkKeys()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		m := hashmap.New[uintptr, uintptr]()
		for _, k := range keys {
			m.Set(k, k)
		}
	}
}

func BenchmarkGetHashMap(b *testing.B) {
	keys := benchmarkKeys()
	m, _ := New[uintptr, uintptr]()
	for _, k := range keys {
		_ = m.Put(k, k)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, k := range keys {
			if v, _ := m.Get(k); v != k {
				b.Fail()
			}
		}
	}
}

func BenchmarkGetGoMap(b *testing.B) {
	keys := benchmarkKeys()
	m := make(map[uintptr]uintptr)
	for _, k := range keys {
		m[k] = k
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, k := range keys {
			if m[k] != k {
				b.Fail()
			}
		}
	}
}

func BenchmarkGetHaxMap(b *testing.B) {
	keys := benchmarkKeys()
	m := haxmap.New[uintptr, uintptr]()
	for _, k := range keys {
		m.Set(k, k)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, k := range keys {
			if v, _ := m.Get(k); v != k {
				b.Fail()
			}
		}
	}
}

func BenchmarkGetCornelkMap(b *testing.B) {
	keys := benchmarkKeys()
	m := hashmap.New[uintptr, uintptr]()
	for _, k := range keys {
		m.Set(k, k)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, k := range keys {
			if v, _ := m.Get(k); v != k {
				b.Fail()
			}
		}
	}
}
