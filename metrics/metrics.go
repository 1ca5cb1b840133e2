package metrics

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Config selects how send metrics leave the process. A single send exits too
// quickly to be scraped, so the textfile (node_exporter textfile collector) is
// the usual target; the HTTP endpoint is for long batch runs.
type Config struct {
	TextfilePath          string `envconfig:"METRICS_TEXTFILE"`
	Host                  string `envconfig:"METRICS_HOST"`
	Port                  int    `envconfig:"METRICS_PORT" default:"9464"`
	HttpServerReadTimeout int    `envconfig:"METRICS_READ_TIMEOUT" default:"30"`
}

type Metrics struct {
	config   Config
	registry *promclient.Registry
	provider *metric.MeterProvider
	server   *http.Server
}

var _ io.Closer = (*Metrics)(nil)

func InitDefault(config Config) (io.Closer, error) {
	m := New(config)
	if err := m.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start metrics")
	}

	return m, nil
}

func New(config Config) *Metrics {
	registry := promclient.NewRegistry()
	m := &Metrics{
		config:   config,
		registry: registry,
	}
	if config.Host != "" {
		m.server = NewHttpServer(config, registry)
	}
	return m
}

func (m *Metrics) Start() error {
	provider, err := InitPrometheus(m.registry)
	if err != nil {
		return errors.Wrap(err, "failed to init prometheus")
	}
	m.provider = provider

	if m.server == nil {
		return nil
	}

	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Default().Warn("metrics server failed", "error", err.Error())
		}
	}()

	return nil
}

// Close writes the textfile, if configured, and stops the endpoint.
func (m *Metrics) Close() error {
	if m.config.TextfilePath != "" {
		if err := promclient.WriteToTextfile(m.config.TextfilePath, m.registry); err != nil {
			return errors.Wrap(err, "failed to write metrics textfile")
		}
	}

	if m.provider != nil {
		if err := m.provider.Shutdown(context.Background()); err != nil {
			return errors.Wrap(err, "failed to shutdown meter provider")
		}
	}

	if m.server != nil {
		return errors.Wrap(m.server.Close(), "failed to close metrics")
	}

	return nil
}

func NewHttpServer(conf Config, gatherer promclient.Gatherer) *http.Server {
	r := http.NewServeMux()
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:        fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		Handler:     r,
		ReadTimeout: time.Duration(conf.HttpServerReadTimeout) * time.Second,
	}
}
