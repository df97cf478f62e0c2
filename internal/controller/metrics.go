// Copyright 2024 Alexandre Mahdhaoui
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package controller

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/alexandremahdhaoui/vmpatch/internal/types"
)

const (
	metricsNamespace = "vmpatch"
	resultSuccess    = "success"
)

// Metrics counts and times the VMPatch operations.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics registers the operation metrics to reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "operations_total",
			Help:      "Number of operations by result. The result is the error kind of failed operations.",
		}, []string{"operation", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of operations, including hypervisor and ssh round trips.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
		}, []string{"operation"}),
	}
}

// Operations returns the vmpatch_operations_total counter.
func (m *Metrics) Operations() *prometheus.CounterVec {
	return m.operations
}

// Duration returns the vmpatch_operation_duration_seconds histogram.
func (m *Metrics) Duration() *prometheus.HistogramVec {
	return m.duration
}

// Observe records one operation. An empty kind means the operation succeeded.
func (m *Metrics) Observe(operation string, kind types.ErrorKind, d time.Duration) {
	result := string(kind)
	if result == "" {
		result = resultSuccess
	}

	m.operations.WithLabelValues(operation, result).Inc()
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}
