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

// Package metrics is the engine's prometheus registry, grounded on the
// teacher's own metrics/metric.go (GRPCMetrics + a shared Registry) but
// with the "InodeDB" namespace swapped for "nsdb" and a handful of
// domain-specific collectors for select/WAL/optimizer work.
package metrics

import (
	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nsdb"

var (
	Registry = prometheus.NewRegistry()

	GRPCMetrics = grpcprometheus.NewServerMetrics(
		func(c *prometheus.CounterOpts) {
			c.Namespace = namespace
		},
	)

	SelectDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "select",
		Name:      "duration_seconds",
		Help:      "planner Select latency by namespace.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"namespace"})

	SelectMatched = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "select",
		Name:      "matched_rows",
		Help:      "rows matched by a Select before pagination.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"namespace"})

	WALAppendDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "wal",
		Name:      "append_duration_seconds",
		Help:      "time to write one batch of records to the WAL sink.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"namespace"})

	WALFlushBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "wal",
		Name:      "flush_bytes_total",
		Help:      "bytes written to the WAL disk segment.",
	}, []string{"namespace"})

	OptimizerPhase = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "optimizer",
		Name:      "phase",
		Help:      "current optimizer phase per namespace, see optimizer.Phase.",
	}, []string{"namespace"})

	OptimizerRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "optimizer",
		Name:      "runs_total",
		Help:      "completed background optimization passes.",
	}, []string{"namespace"})

	TxnOpen = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "txn",
		Name:      "open",
		Help:      "currently open transactions per namespace.",
	}, []string{"namespace"})
)

func init() {
	Registry.MustRegister(
		GRPCMetrics,
		SelectDuration,
		SelectMatched,
		WALAppendDuration,
		WALFlushBytes,
		OptimizerPhase,
		OptimizerRuns,
		TxnOpen,
	)
	GRPCMetrics.EnableHandlingTimeHistogram(
		func(h *prometheus.HistogramOpts) {
			h.Namespace = namespace
		},
	)
}
