package fusionrag

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation status label values.
const (
	statusOK       = "ok"
	statusCached   = "cached"
	statusNotFound = "bot_not_found"
	statusError    = "error"
)

type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	documents  *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fusionrag",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Total SDK operations by type and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fusionrag",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
		documents: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fusionrag",
			Subsystem: "sdk",
			Name:      "documents_returned",
			Help:      "Documents returned per successful SDK operation.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10, 20, 50},
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.documents); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("fusionrag: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("fusionrag: register metric: %w", err)
	}
	return nil
}

// call describes one finished SDK operation.
type call struct {
	op        string
	botID     string
	start     time.Time
	documents int
	cached    bool
	err       error
}

func (c call) status() string {
	switch {
	case c.err == nil && c.cached:
		return statusCached
	case c.err == nil:
		return statusOK
	case errors.Is(c.err, ErrBotNotFound):
		return statusNotFound
	default:
		return statusError
	}
}

// observer records logs and metrics for SDK operations. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) observe(c call) {
	if o == nil {
		return
	}
	dur := time.Since(c.start)
	status := c.status()

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(c.op, status).Inc()
		o.metrics.duration.WithLabelValues(c.op).Observe(dur.Seconds())
		if c.err == nil {
			o.metrics.documents.WithLabelValues(c.op).Observe(float64(c.documents))
		}
	}

	if o.logger == nil {
		return
	}
	if c.err != nil {
		o.logger.Warn("fusionrag operation failed",
			"op", c.op,
			"bot_id", c.botID,
			"status", status,
			"duration", dur,
			"error", c.err,
		)
		return
	}
	o.logger.Debug("fusionrag operation completed",
		"op", c.op,
		"bot_id", c.botID,
		"status", status,
		"documents", c.documents,
		"duration", dur,
	)
}
