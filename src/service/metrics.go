// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package service

import (
	"errors"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/builder"
)

// metricsNamespace prefixes every metric, e.g. x509_builder_builds_total.
const metricsNamespace = "x509_builder"

// Build outcomes used as the "outcome" label.
const (
	OutcomeSuccess              = "success"
	OutcomeInvalidArgument      = "invalid_argument"
	OutcomeDecryption           = "decryption"
	OutcomeUnsupportedOperation = "unsupported_operation"
	OutcomeUnspecified          = "unspecified"
)

var outcomes = map[builder.ErrorKind]string{
	builder.InvalidArgumentError:      OutcomeInvalidArgument,
	builder.DecryptionError:           OutcomeDecryption,
	builder.UnsupportedOperationError: OutcomeUnsupportedOperation,
	builder.UnspecifiedError:          OutcomeUnspecified,
}

// outcomeOf returns the outcome label of a build result.
func outcomeOf(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	return outcomes[builder.KindOf(err)]
}

// Metrics are the collectors a [Service] updates.
type Metrics struct {
	// BuildsTotal counts finished builds by builder kind and outcome.
	BuildsTotal *prometheus.CounterVec

	// BuildDuration tracks the time spent in builders, lock wait excluded.
	BuildDuration *prometheus.HistogramVec

	// BuildsInFlight is 1 while a build holds the service lock.
	BuildsInFlight prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		BuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "builds_total",
				Help:      "represents the number of finished builds",
			},
			[]string{"kind", "outcome"},
		),
		BuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "build_duration_seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
				Help:      "Histogram to track time spent building artifacts",
			},
			[]string{"kind"},
		),
		BuildsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "builds_in_flight",
			Help:      "represents the number of builds currently running",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.BuildsTotal, m.BuildDuration, m.BuildsInFlight}
}

func (m *Metrics) register(r prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) record(kind builder.Kind, err error, elapsed time.Duration) {
	m.BuildsTotal.WithLabelValues(string(kind), outcomeOf(err)).Inc()
	m.BuildDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// ErrNoGatherer is returned by [Service.WriteMetrics] when the registerer the
// service was given cannot be gathered from.
var ErrNoGatherer = errors.New("service: metrics registerer is not a gatherer")

// WriteMetrics writes the service metrics in the Prometheus text exposition format.
func (s *Service) WriteMetrics(w io.Writer) error {
	if s.gatherer == nil {
		return ErrNoGatherer
	}
	families, err := s.gatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
