// Copyright (c) Arista Networks, Inc. 2024
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"runtime"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

// ErrInvalidConfig is returned, wrapped with the offending field, when a
// configuration file fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Key types a workload may use.
const (
	KeyInt64   = "int64"
	KeyUint32  = "uint32"
	KeyFloat64 = "float64"
	KeyPointer = "pointer"
	KeyString  = "string"
)

var keyTypes = []string{KeyInt64, KeyUint32, KeyFloat64, KeyPointer, KeyString}

// Config is the top level of a chashbench TOML file.
type Config struct {
	// Parallelism is the number of workloads run at once. Zero means
	// one per CPU.
	Parallelism int        `toml:"parallelism"`
	Log         LogConfig  `toml:"log"`
	Workloads   []Workload `toml:"workload"`
}

// Workload fills one HashMap with Count distinct keys, re-puts Updates
// of them, reads every key back and releases the map.
type Workload struct {
	Name    string `toml:"name"`
	KeyType string `toml:"key_type"`
	Count   int    `toml:"count"`
	Updates int    `toml:"updates"`
	// MemoryLimit caps the bytes the map may hold through its
	// allocator. Zero means no limit.
	MemoryLimit uint64 `toml:"memory_limit"`
}

// LoadConfig reads and validates the TOML file at path.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseConfig decodes and validates a TOML document.
func ParseConfig(data string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func checkUndecoded(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, 0, len(undecoded))
	for _, k := range undecoded {
		keys = append(keys, k.String())
	}
	return errors.Wrapf(ErrInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
}

// validate checks every field and fills in defaults.
func (c *Config) validate() error {
	if c.Parallelism < 0 {
		return errors.Wrapf(ErrInvalidConfig, "parallelism: %d", c.Parallelism)
	}
	if c.Parallelism == 0 {
		c.Parallelism = runtime.NumCPU()
	}
	if err := c.Log.validate(); err != nil {
		return err
	}
	if len(c.Workloads) == 0 {
		return errors.Wrap(ErrInvalidConfig, "workload: none given")
	}
	names := make(map[string]struct{}, len(c.Workloads))
	for i := range c.Workloads {
		w := &c.Workloads[i]
		if w.Name == "" {
			return errors.Wrapf(ErrInvalidConfig, "workload[%d].name: empty", i)
		}
		if _, ok := names[w.Name]; ok {
			return errors.Wrapf(ErrInvalidConfig, "workload[%d].name: duplicate %q", i, w.Name)
		}
		names[w.Name] = struct{}{}
		if !validKeyType(w.KeyType) {
			return errors.Wrapf(ErrInvalidConfig, "workload %q key_type: %q is not one of %s",
				w.Name, w.KeyType, strings.Join(keyTypes, ", "))
		}
		if w.Count <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "workload %q count: %d", w.Name, w.Count)
		}
		if w.Updates < 0 {
			return errors.Wrapf(ErrInvalidConfig, "workload %q updates: %d", w.Name, w.Updates)
		}
	}
	return nil
}

func validKeyType(t string) bool {
	for _, k := range keyTypes {
		if t == k {
			return true
		}
	}
	return false
}

// workloadNames returns the workload names in sorted order.
func (c *Config) workloadNames() []string {
	names := make([]string, 0, len(c.Workloads))
	for _, w := range c.Workloads {
		names = append(names, w.Name)
	}
	sort.Strings(names)
	return names
}
