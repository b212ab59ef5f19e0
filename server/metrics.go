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

package server

import (
	"fmt"
	"os"

	"github.com/pingcap/log"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/reldb/reldb/executor"
	"github.com/reldb/reldb/storage"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reldb",
			Subsystem: "server",
			Name:      "request_count",
			Help:      "Total handled request count by path and status.",
		}, []string{"path", "status"})

	requestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reldb",
			Subsystem: "server",
			Name:      "request_duration_time",
			Help:      "Bucketed histogram of processing time (s) of a request.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 18),
		}, []string{"path"})

	wsConnectionGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "reldb",
			Subsystem: "server",
			Name:      "ws_connection_count",
			Help:      "the number of open websocket sessions",
		})
)

// Registry is the metrics registry of server
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	Registry.MustRegister(prometheus.NewGoCollector())

	Registry.MustRegister(requestCounter)
	Registry.MustRegister(requestDurationHistogram)
	Registry.MustRegister(wsConnectionGauge)

	storage.InitMetrics(Registry)
	executor.InitMetrics(Registry)
}

var getHostname = os.Hostname

func instanceName(port int) string {
	hostname, err := getHostname()
	if err != nil {
		log.Error("Failed to get hostname", zap.Error(err))
		return "unknown"
	}
	return fmt.Sprintf("%s_%d", hostname, port)
}
