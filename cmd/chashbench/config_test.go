// Copyright (c) Arista Networks, Inc. 2024
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(`
parallelism = 2

[log]
level = "debug"
format = "json"

[[workload]]
name = "a"
key_type = "int64"
count = 10
updates = 5

[[workload]]
name = "b"
key_type = "string"
count = 3
memory_limit = 4096
`)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Parallelism)
	require.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
	require.Equal(t, []Workload{
		{Name: "a", KeyType: KeyInt64, Count: 10, Updates: 5},
		{Name: "b", KeyType: KeyString, Count: 3, MemoryLimit: 4096},
	}, cfg.Workloads)
	require.Equal(t, []string{"a", "b"}, cfg.workloadNames())
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(`
[[workload]]
name = "only"
key_type = "pointer"
count = 1
`)
	require.NoError(t, err)
	require.Equal(t, runtime.NumCPU(), cfg.Parallelism)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, formatConsole, cfg.Log.Format)
}

func TestParseConfigErrors(t *testing.T) {
	const workload = `
[[workload]]
name = "w"
key_type = "int64"
count = 1
`
	tests := []struct {
		name    string
		data    string
		invalid bool
		wantMsg string
	}{
		{
			name:    "syntax",
			data:    "parallelism = ",
			wantMsg: "decode config",
		},
		{
			name:    "unknown key",
			data:    "colour = 1\n" + workload,
			invalid: true,
			wantMsg: "colour",
		},
		{
			name:    "negative parallelism",
			data:    "parallelism = -1\n" + workload,
			invalid: true,
			wantMsg: "parallelism",
		},
		{
			name:    "no workloads",
			data:    "parallelism = 1",
			invalid: true,
			wantMsg: "none given",
		},
		{
			name:    "bad level",
			data:    "[log]\nlevel = \"loud\"\n" + workload,
			invalid: true,
			wantMsg: "log level",
		},
		{
			name:    "bad format",
			data:    "[log]\nformat = \"xml\"\n" + workload,
			invalid: true,
			wantMsg: "unsupported log format: xml",
		},
		{
			name:    "missing name",
			data:    "[[workload]]\nkey_type = \"int64\"\ncount = 1\n",
			invalid: true,
			wantMsg: "workload[0].name",
		},
		{
			name:    "duplicate name",
			data:    workload + workload,
			invalid: true,
			wantMsg: `duplicate "w"`,
		},
		{
			name:    "struct keys",
			data:    "[[workload]]\nname = \"s\"\nkey_type = \"struct\"\ncount = 1\n",
			invalid: true,
			wantMsg: "key_type",
		},
		{
			name:    "zero count",
			data:    "[[workload]]\nname = \"z\"\nkey_type = \"uint32\"\n",
			invalid: true,
			wantMsg: "count: 0",
		},
		{
			name:    "negative updates",
			data:    workload + "updates = -3\n",
			invalid: true,
			wantMsg: "updates: -3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(tt.data)
			require.Error(t, err)
			require.Equal(t, tt.invalid, errors.Is(err, ErrInvalidConfig))
			require.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("chashbench.toml")
	require.NoError(t, err)
	require.Len(t, cfg.Workloads, 6)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("parallelism = 1\nworkers = 2\n"), 0o644))
	_, err = LoadConfig(path)
	require.True(t, errors.Is(err, ErrInvalidConfig))
	require.Contains(t, err.Error(), path)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
