package smtp

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/pure-golang/esim-mailer/mail"
)

type instruments struct {
	sends    metric.Int64Counter
	duration metric.Float64Histogram
}

func newInstruments() *instruments {
	sends, err := meter.Int64Counter("esim_mailer.sends",
		metric.WithDescription("Number of notification send attempts"))
	if err != nil {
		sends, _ = noop.NewMeterProvider().Meter("").Int64Counter("esim_mailer.sends")
	}

	duration, err := meter.Float64Histogram("esim_mailer.send.duration",
		metric.WithDescription("Duration of a notification send"),
		metric.WithUnit("s"))
	if err != nil {
		duration, _ = noop.NewMeterProvider().Meter("").Float64Histogram("esim_mailer.send.duration")
	}

	return &instruments{sends: sends, duration: duration}
}

func (i *instruments) record(ctx context.Context, p mail.Provider, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = mail.KindOf(err).String()
	}

	attrs := metric.WithAttributes(
		attribute.String("provider", p.String()),
		attribute.String("result", result),
	)
	i.sends.Add(ctx, 1, attrs)
	i.duration.Record(ctx, elapsed.Seconds(), attrs)
}
