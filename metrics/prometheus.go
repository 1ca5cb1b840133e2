package metrics

import (
	"github.com/pkg/errors"
	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitPrometheus installs an otel MeterProvider backed by a Prometheus exporter
// registered in reg, and returns it for shutdown.
func InitPrometheus(reg promclient.Registerer) (*metric.MeterProvider, error) {
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create prometheus instance")
	}
	provider := metric.NewMeterProvider(metric.WithReader(exporter))

	otel.SetMeterProvider(provider)

	if err := runtime.Start(runtime.WithMeterProvider(provider)); err != nil {
		return nil, errors.Wrap(err, "failed to start runtime")
	}

	return provider, nil
}
