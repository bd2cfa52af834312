// Copyright (c) Arista Networks, Inc. 2024
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/aristanetworks/chashmap"
	"github.com/aristanetworks/chashmap/alloc"
)

var (
	// ErrVerify is returned when a key that was put does not read back
	// with the value last put under it.
	ErrVerify = errors.New("verification failed")
	// ErrLeak is returned when a released map leaves allocations behind.
	ErrLeak = errors.New("allocations outstanding after release")
)

// cancelCheckInterval is how many operations run between checks of the
// context.
const cancelCheckInterval = 1024

// releaseTimeout bounds how long Run waits for the worker pool to exit.
const releaseTimeout = 5 * time.Second

// Result is the outcome of one workload.
type Result struct {
	Workload string
	KeyType  string
	Strategy chashmap.Strategy
	// Inserted counts successful puts of new keys, Updated successful
	// puts of existing ones.
	Inserted int
	Updated  int
	Len      int
	Cap      int
	// OutOfMemory is set when the memory limit stopped the workload
	// early. It is not an error: the keys put before it are verified.
	OutOfMemory bool
	Elapsed     time.Duration
	Err         error
}

// Runner runs the workloads of a Config on a bounded worker pool. Each
// HashMap is created, used and released by a single task.
type Runner struct {
	cfg     *Config
	logger  *zap.Logger
	metrics *alloc.Metrics
}

// NewRunner registers the allocator metrics with reg.
func NewRunner(cfg *Config, logger *zap.Logger, reg prometheus.Registerer) (*Runner, error) {
	metrics, err := alloc.NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg, logger: logger, metrics: metrics}, nil
}

// Run executes every workload and returns their results in
// configuration order. The error is non-nil only if the pool could not
// be created or shut down; per-workload failures are in the results.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	pool, err := ants.NewPool(r.cfg.Parallelism,
		ants.WithDisablePurge(true),
		ants.WithLogger(zap.NewStdLog(r.logger)),
		ants.WithPanicHandler(func(v interface{}) {
			r.logger.Error("workload panicked", zap.Any("panic", v), zap.Stack("stack"))
		}))
	if err != nil {
		return nil, errors.Wrap(err, "create worker pool")
	}

	results := make([]Result, len(r.cfg.Workloads))
	var wg sync.WaitGroup
	for i, w := range r.cfg.Workloads {
		i, w := i, w // per-iteration copies for the closure (go 1.21 loop semantics)
		results[i] = Result{Workload: w.Name, KeyType: w.KeyType}
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if v := recover(); v != nil {
					results[i].Err = errors.Newf("panic: %v", v)
					panic(v)
				}
			}()
			r.runWorkload(ctx, w, &results[i])
		})
		if err != nil {
			wg.Done()
			results[i].Err = errors.Wrapf(err, "submit workload %q", w.Name)
		}
	}
	wg.Wait()

	if err := pool.ReleaseTimeout(releaseTimeout); err != nil {
		return results, errors.Wrap(err, "release worker pool")
	}
	return results, nil
}

func (r *Runner) runWorkload(ctx context.Context, w Workload, res *Result) {
	logger := r.logger.With(zap.String("workload", w.Name), zap.String("key_type", w.KeyType))
	logger.Debug("workload started", zap.Int("count", w.Count), zap.Int("updates", w.Updates))

	switch w.KeyType {
	case KeyInt64:
		// Half the keys are negative.
		runTyped(ctx, r, logger, w, res, func(i int) int64 { return int64(i) - int64(w.Count/2) })
	case KeyUint32:
		runTyped(ctx, r, logger, w, res, func(i int) uint32 { return uint32(i) })
	case KeyFloat64:
		runTyped(ctx, r, logger, w, res, func(i int) float64 { return float64(i) / 4 })
	case KeyPointer:
		keys := make([]*int, w.Count)
		for i := range keys {
			keys[i] = new(int)
			*keys[i] = i
		}
		runTyped(ctx, r, logger, w, res, func(i int) *int { return keys[i] })
	case KeyString:
		// String keys are compared by identity, so each key is built
		// once and the same value is used for every operation on it.
		keys := make([]string, w.Count)
		for i := range keys {
			keys[i] = fmt.Sprintf("%s-%d", w.Name, i)
		}
		runTyped(ctx, r, logger, w, res, func(i int) string { return keys[i] })
	default:
		res.Err = errors.Wrapf(ErrInvalidConfig, "key_type %q", w.KeyType)
	}
}

// runTyped fills a map with key(0) .. key(w.Count-1), applies w.Updates
// re-puts cycling over the inserted keys, reads every key back and
// releases the map. Key i holds i, or -(i+1) once updated.
func runTyped[K comparable](
	ctx context.Context, r *Runner, logger *zap.Logger, w Workload, res *Result, key func(i int) K,
) {
	var upstream alloc.Allocator = alloc.HeapAllocator{}
	if w.MemoryLimit > 0 {
		upstream = alloc.NewLimitAllocator(nil, w.MemoryLimit)
	}
	counter := alloc.NewCountingAllocator(r.metrics.Wrap(upstream))
	m, err := chashmap.New[K, int](chashmap.WithAllocator(counter), chashmap.WithLogger(logger))
	if err != nil {
		res.Err = errors.Wrap(err, "create map")
		return
	}
	res.Strategy = m.Strategy()
	defer func() {
		m.Release()
		if !counter.Balanced() && res.Err == nil {
			res.Err = errors.Wrapf(ErrLeak, "entries %+v, nodes %+v, tables %+v",
				counter.Stats(alloc.ClassEntry), counter.Stats(alloc.ClassNode),
				counter.Stats(alloc.ClassTable))
		}
	}()

	// put reports whether the workload may continue.
	put := func(i, value int) (bool, error) {
		err := m.Put(key(i), value)
		if err == nil {
			return true, nil
		}
		if errors.Is(err, chashmap.ErrOutOfMemory) {
			res.OutOfMemory = true
			logger.Info("memory limit reached",
				zap.Int("len", m.Len()), zap.Int("cap", m.Cap()), zap.Error(err))
			return false, nil
		}
		return false, err
	}

	start := time.Now()
	for i := 0; i < w.Count; i++ {
		if i%cancelCheckInterval == 0 && ctx.Err() != nil {
			res.Err = errors.Wrap(ctx.Err(), "insert")
			return
		}
		ok, err := put(i, i)
		if err != nil {
			res.Err = errors.Wrapf(err, "insert key %d", i)
			return
		}
		if !ok {
			break
		}
		res.Inserted++
	}
	if res.Inserted > 0 {
		for j := 0; j < w.Updates; j++ {
			if j%cancelCheckInterval == 0 && ctx.Err() != nil {
				res.Err = errors.Wrap(ctx.Err(), "update")
				return
			}
			i := j % res.Inserted
			ok, err := put(i, -(i + 1))
			if err != nil {
				res.Err = errors.Wrapf(err, "update key %d", i)
				return
			}
			if !ok {
				break
			}
			res.Updated++
		}
	}
	res.Elapsed = time.Since(start)
	res.Len, res.Cap = m.Len(), m.Cap()

	if res.Len != res.Inserted {
		res.Err = errors.Wrapf(ErrVerify, "len %d after %d insertions", res.Len, res.Inserted)
		return
	}
	for i := 0; i < res.Inserted; i++ {
		want := i
		if i < res.Updated {
			want = -(i + 1)
		}
		got, ok := m.Get(key(i))
		if !ok || got != want {
			res.Err = errors.Wrapf(ErrVerify, "key %d: got %d, %t, want %d", i, got, ok, want)
			return
		}
	}
	logger.Debug("workload finished",
		zap.Int("len", res.Len), zap.Int("cap", res.Cap), zap.Duration("elapsed", res.Elapsed))
}
