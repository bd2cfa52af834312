// Copyright (c) Arista Networks, Inc. 2024
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command chashbench runs the HashMap workloads described by a TOML
// file, verifies that every key reads back, and logs per-workload
// results together with the allocator metrics.
//
// Usage:
//
//	chashbench -config chashbench.toml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "chashbench.toml", "path of the workload configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, *configFile); err != nil {
		fmt.Fprintf(os.Stderr, "chashbench: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string) error {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return err
	}
	logger, err := NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	runner, err := NewRunner(cfg, logger, reg)
	if err != nil {
		return err
	}
	logger.Info("running workloads",
		zap.Int("parallelism", cfg.Parallelism),
		zap.Strings("workloads", cfg.workloadNames()))

	results, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	failed := 0
	for _, res := range results {
		fields := []zap.Field{
			zap.String("workload", res.Workload),
			zap.String("key_type", res.KeyType),
			zap.Stringer("strategy", res.Strategy),
			zap.Int("inserted", res.Inserted),
			zap.Int("updated", res.Updated),
			zap.Int("len", res.Len),
			zap.Int("cap", res.Cap),
			zap.Bool("out_of_memory", res.OutOfMemory),
			zap.Duration("elapsed", res.Elapsed),
		}
		if res.Err != nil {
			failed++
			logger.Error("workload failed", append(fields, zap.Error(res.Err))...)
			continue
		}
		logger.Info("workload passed", fields...)
	}
	if err := logMetrics(logger, reg); err != nil {
		return err
	}
	if failed > 0 {
		return errors.Newf("%d of %d workloads failed", failed, len(results))
	}
	return nil
}

// logMetrics logs every sample gathered from reg.
func logMetrics(logger *zap.Logger, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fields := []zap.Field{zap.String("name", mf.GetName())}
			for _, l := range m.GetLabel() {
				fields = append(fields, zap.String(l.GetName(), l.GetValue()))
			}
			if c := m.GetCounter(); c != nil {
				fields = append(fields, zap.Float64("value", c.GetValue()))
			} else {
				fields = append(fields, zap.Float64("value", m.GetGauge().GetValue()))
			}
			logger.Info("metric", fields...)
		}
	}
	return nil
}
