// Package metrics exports presign activity to Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tendant/simple-upload/pkg/simpleupload"
)

// DefaultNamespace prefixes every metric name
const DefaultNamespace = "simpleupload"

// Sink counts issued and rejected presigns
type Sink struct {
	created      *promclient.CounterVec
	rejected     *promclient.CounterVec
	fieldErrors  *promclient.CounterVec
	declaredSize *promclient.HistogramVec
}

// NewSink registers the presign metrics with reg. A nil reg uses the
// default registerer. Registering twice reuses the existing collectors.
func NewSink(namespace string, reg promclient.Registerer) (*Sink, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = promclient.DefaultRegisterer
	}

	s := &Sink{
		created: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "presigns_created_total",
			Help:      "Count of signed upload policies.",
		}, []string{"endpoint", "disk"}),
		rejected: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "presigns_rejected_total",
			Help:      "Count of upload requests rejected by validation.",
		}, []string{"endpoint"}),
		fieldErrors: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      "Count of validation errors by field and code.",
		}, []string{"endpoint", "field", "code"}),
		declaredSize: promclient.NewHistogramVec(promclient.HistogramOpts{
			Namespace: namespace,
			Name:      "declared_size_bytes",
			Help:      "Declared size of authorized uploads.",
			Buckets:   promclient.ExponentialBuckets(1024, 4, 10),
		}, []string{"endpoint"}),
	}

	var err error
	if s.created, err = register(reg, s.created); err != nil {
		return nil, fmt.Errorf("register created counter: %w", err)
	}
	if s.rejected, err = register(reg, s.rejected); err != nil {
		return nil, fmt.Errorf("register rejected counter: %w", err)
	}
	if s.fieldErrors, err = register(reg, s.fieldErrors); err != nil {
		return nil, fmt.Errorf("register validation error counter: %w", err)
	}
	if s.declaredSize, err = register(reg, s.declaredSize); err != nil {
		return nil, fmt.Errorf("register size histogram: %w", err)
	}
	return s, nil
}

func register[C promclient.Collector](reg promclient.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are promclient.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

// PresignCreated counts an issued policy
func (s *Sink) PresignCreated(ctx context.Context, event *simpleupload.PresignCreatedEvent) error {
	s.created.WithLabelValues(event.Endpoint, event.Disk).Inc()
	s.declaredSize.WithLabelValues(event.Endpoint).Observe(float64(event.Attributes.Size))
	return nil
}

// PresignFailed counts a rejection and each of its field errors
func (s *Sink) PresignFailed(ctx context.Context, event *simpleupload.PresignFailedEvent) error {
	s.rejected.WithLabelValues(event.Endpoint).Inc()
	for _, fe := range event.Errors {
		s.fieldErrors.WithLabelValues(event.Endpoint, fe.Field, fe.Code).Inc()
	}
	return nil
}

// Handler serves the metrics gathered by g; nil uses the default gatherer
func Handler(g promclient.Gatherer) http.Handler {
	if g == nil {
		g = promclient.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var _ simpleupload.EventSink = (*Sink)(nil)
