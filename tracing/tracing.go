package tracing

import (
	"io"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Provider interface {
	trace.TracerProvider
	io.Closer
}

// ProviderBuilder wraps the construction details of a Provider (ex. config struct).
type ProviderBuilder func() (Provider, error)

// Init builds the provider and installs it globally. On failure a NoopProvider
// is returned together with the error so that callers may carry on untraced.
func Init(creator ProviderBuilder) (Provider, error) {
	provider, err := creator()
	if err != nil {
		return NoopProvider{}, errors.Wrap(err, "failed to load tracing provider")
	}

	otel.SetTracerProvider(provider)
	return provider, nil
}

// NoopProvider discards all spans.
type NoopProvider struct{ noop.TracerProvider }

func (NoopProvider) Close() error { return nil }
