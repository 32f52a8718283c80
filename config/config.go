// Copyright 2024 The Nsdb Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package config loads nsdbd's process configuration, the one ambient
// concern the teacher's own cmd/cmd.go leaves to blobstore's JSON-backed
// common/config package. This module has no persistent-cluster config to
// load (no master/router discovery), so the shape here is simpler: a flat
// struct decoded from YAML with gopkg.in/yaml.v2, the way the
// i5heu-ouroboros-db example's own config loader works.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/nsdb/nsdb/namespace"
)

// EnvOverride is the environment variable that, if set, names the config
// file path instead of the -f flag.
const EnvOverride = "NSDB_CONFIG"

type Config struct {
	HTTPBindAddr string `yaml:"http_bind_addr"`
	GRPCBindAddr string `yaml:"grpc_bind_addr"`
	LogLevel     string `yaml:"log_level"`

	DataDir string `yaml:"data_dir"` // rocksdb path for the WAL's KVSink; empty means in-memory

	TxnIdleTimeout time.Duration   `yaml:"txn_idle_timeout"`
	Optimizer      OptimizerConfig `yaml:"optimizer"`
	WAL            WALConfig       `yaml:"wal"`
}

type OptimizerConfig struct {
	IntervalSeconds int     `yaml:"interval_seconds"`
	ScanRatePerSec  float64 `yaml:"scan_rate_per_sec"`
	Concurrency     int     `yaml:"concurrency"`
}

type WALConfig struct {
	FlushIntervalMS int     `yaml:"flush_interval_ms"`
	MaxBatch        int     `yaml:"max_batch"`
	FlushRatePerSec float64 `yaml:"flush_rate_per_sec"`
}

func Default() Config {
	return Config{
		HTTPBindAddr:   ":8080",
		GRPCBindAddr:   ":8081",
		LogLevel:       "info",
		TxnIdleTimeout: 30 * time.Second,
		Optimizer:      OptimizerConfig{IntervalSeconds: 30, ScanRatePerSec: 0, Concurrency: 4},
		WAL:            WALConfig{FlushIntervalMS: 200, MaxBatch: 256, FlushRatePerSec: 0},
	}
}

// Load reads and decodes the YAML file at path, falling back to
// Default() field values for anything the file omits.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// NamespaceConfig translates the process config into the namespace
// package's own Config shape.
func (c Config) NamespaceConfig() namespace.Config {
	nc := namespace.DefaultConfig()
	if c.TxnIdleTimeout > 0 {
		nc.TxnIdleTimeout = c.TxnIdleTimeout
	}
	if c.Optimizer.IntervalSeconds > 0 {
		nc.Optimizer.Interval = time.Duration(c.Optimizer.IntervalSeconds) * time.Second
	}
	nc.Optimizer.ScanRatePerSec = c.Optimizer.ScanRatePerSec
	if c.Optimizer.Concurrency > 0 {
		nc.Optimizer.Concurrency = c.Optimizer.Concurrency
	}
	if c.WAL.FlushIntervalMS > 0 {
		nc.WAL.FlushInterval = time.Duration(c.WAL.FlushIntervalMS) * time.Millisecond
	}
	if c.WAL.MaxBatch > 0 {
		nc.WAL.MaxBatch = c.WAL.MaxBatch
	}
	nc.WAL.FlushRatePerSec = c.WAL.FlushRatePerSec
	return nc
}
