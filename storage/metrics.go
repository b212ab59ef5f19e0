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

package storage

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	storageSizeGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "reldb",
			Subsystem: "storage",
			Name:      "size_bytes",
			Help:      "storage size info of the data directory",
		}, []string{"type"})

	liveRowsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "reldb",
			Subsystem: "storage",
			Name:      "live_rows",
			Help:      "live row count per table",
		}, []string{"table"})

	errorCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reldb",
			Subsystem: "storage",
			Name:      "error_count",
			Help:      "Total error count in storage",
		}, []string{"type"})

	writeSizeHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reldb",
			Subsystem: "storage",
			Name:      "write_record_size",
			Help:      "write record payload size",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 20),
		}, []string{"type"})

	writeDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reldb",
			Subsystem: "storage",
			Name:      "write_record_duration_time",
			Help:      "Bucketed histogram of write time (s) of records.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 20),
		}, []string{"type"})
)

// InitMetrics register the metrics to registry
func InitMetrics(registry *prometheus.Registry) {
	registry.MustRegister(storageSizeGauge)
	registry.MustRegister(liveRowsGauge)
	registry.MustRegister(errorCount)
	registry.MustRegister(writeSizeHistogram)
	registry.MustRegister(writeDurationHistogram)
}
