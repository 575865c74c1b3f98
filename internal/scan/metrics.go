// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scan

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for decode and indexing monitoring
type Metrics struct {
	decoded  *prometheus.CounterVec
	duration prometheus.Histogram
	indexed  prometheus.Counter
}

// NewMetrics creates the scan metrics and registers them with reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		decoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dicom_decode_total",
			Help: "Files decoded by outcome (complete, partial, failed)",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dicom_decode_duration_seconds",
			Help:    "Time spent reading, hashing and decoding a file",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 5.0},
		}),
		indexed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dicom_indexed_total",
			Help: "Instances written to the catalog",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.decoded, m.duration, m.indexed} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering scan metrics: %w", err)
		}
	}
	return m, nil
}
