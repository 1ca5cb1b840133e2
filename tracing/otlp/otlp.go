package otlp

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"github.com/pure-golang/esim-mailer/tracing"
)

var _ tracing.Provider = (*Provider)(nil)

type Config struct {
	EndPoint    string `envconfig:"TRACING_ENDPOINT" required:"true"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"esim-mailer"`
	AppVersion  string `envconfig:"APP_VERSION" default:"dev"`
}

// Provider exports spans over OTLP/HTTP (Jaeger, Tempo, a collector).
type Provider struct {
	*tracesdk.TracerProvider
}

// Close flushes pending spans. A CLI exits right after a send, so spans still
// in the batcher would otherwise be lost.
func (p *Provider) Close() error {
	ctx := context.Background()
	if err := p.ForceFlush(ctx); err != nil {
		if shutdownErr := p.TracerProvider.Shutdown(ctx); shutdownErr != nil {
			return errors.Wrap(err, "otlp force flush failed (also shutdown failed)")
		}
		return errors.Wrap(err, "otlp force flush failed")
	}

	return errors.Wrap(p.TracerProvider.Shutdown(ctx), "shutdown otlp")
}

func NewProviderBuilder(conf Config) tracing.ProviderBuilder {
	return func() (tracing.Provider, error) {
		if conf.EndPoint == "" {
			return nil, errors.New("empty tracing endpoint")
		}
		if conf.ServiceName == "" {
			return nil, errors.New("service name is empty")
		}

		exp, err := otlptrace.New(
			context.Background(),
			otlptracehttp.NewClient(
				otlptracehttp.WithEndpointURL(conf.EndPoint),
			),
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create otlp exporter")
		}

		tp := tracesdk.NewTracerProvider(
			tracesdk.WithBatcher(exp),
			tracesdk.WithResource(resource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceNameKey.String(conf.ServiceName),
				semconv.ServiceVersionKey.String(conf.AppVersion),
			)),
			tracesdk.WithSampler(tracesdk.AlwaysSample()),
		)

		return &Provider{TracerProvider: tp}, nil
	}
}
