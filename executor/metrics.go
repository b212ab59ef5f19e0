// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package executor

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	statementCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reldb",
			Subsystem: "executor",
			Name:      "statement_count",
			Help:      "Total executed statement count by type",
		}, []string{"type"})

	statementErrorCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reldb",
			Subsystem: "executor",
			Name:      "statement_error_count",
			Help:      "Total failed statement count by type",
		}, []string{"type"})

	statementDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reldb",
			Subsystem: "executor",
			Name:      "statement_duration_time",
			Help:      "Bucketed histogram of statement execution time (s).",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 20),
		}, []string{"type"})
)

// InitMetrics register the metrics to registry
func InitMetrics(registry *prometheus.Registry) {
	registry.MustRegister(statementCounter)
	registry.MustRegister(statementErrorCount)
	registry.MustRegister(statementDurationHistogram)
}
