package prodsearch

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// Outcome labels on prodsearch_sdk_operations_total.
const (
	outcomeOK          = "ok"
	outcomeNotFound    = "not_found"
	outcomeInvalid     = "invalid"
	outcomeNotReady    = "not_ready"
	outcomeUnavailable = "unavailable"
	outcomeError       = "error"
)

type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prodsearch",
		Subsystem: "sdk",
		Name:      "operations_total",
		Help:      "SDK calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	dur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "prodsearch",
		Subsystem: "sdk",
		Name:      "operation_duration_seconds",
		Help:      "SDK call latency.",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"operation"})

	var err error
	if ops, err = register(reg, ops); err != nil {
		return nil, err
	}
	if dur, err = register(reg, dur); err != nil {
		return nil, err
	}
	return &sdkMetrics{operations: ops, duration: dur}, nil
}

// register adds c to reg. When two clients share a registry the second one
// picks up the collector the first one registered.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return c, fmt.Errorf("prodsearch: register metrics: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("prodsearch: metric registered as %T", are.ExistingCollector)
	}
	return existing, nil
}

// observer records every public Client call. Both sinks are optional.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// track starts timing op. Call the returned func with the address of the
// method's named error result, typically via defer.
func (o *observer) track(op string) func(*error) {
	start := time.Now()
	return func(errp *error) {
		if o == nil {
			return
		}
		var err error
		if errp != nil {
			err = *errp
		}
		o.record(op, time.Since(start), err)
	}
}

func (o *observer) record(op string, took time.Duration, err error) {
	outcome := classify(err)
	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, outcome).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(took.Seconds())
	}
	if o.logger == nil {
		return
	}
	switch outcome {
	case outcomeOK, outcomeNotFound:
		o.logger.Debug("prodsearch call", "op", op, "outcome", outcome, "took", took)
	case outcomeInvalid:
		o.logger.Info("prodsearch call rejected", "op", op, "took", took, "error", err)
	default:
		o.logger.Warn("prodsearch call failed", "op", op, "outcome", outcome, "took", took, "error", err)
	}
}

func classify(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, domain.ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		return outcomeInvalid
	case errors.Is(err, domain.ErrNotReady):
		return outcomeNotReady
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return outcomeUnavailable
	default:
		return outcomeError
	}
}
