// Command esim-mailer sends one eSIM notification email with an inline QR code
// through Gmail or Outlook, authenticating with an OAuth2 access token.
//
// Every input is read from the environment (or a .env file), see Config.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/pure-golang/esim-mailer/env"
	"github.com/pure-golang/esim-mailer/logger"
	"github.com/pure-golang/esim-mailer/mail"
	"github.com/pure-golang/esim-mailer/mail/noop"
	"github.com/pure-golang/esim-mailer/mail/smtp"
	"github.com/pure-golang/esim-mailer/metrics"
	"github.com/pure-golang/esim-mailer/tracing"
	"github.com/pure-golang/esim-mailer/tracing/otlp"
)

const (
	exitOK = iota
	exitSendFailed
	exitBadConfig
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, stdout, stderr io.Writer) int {
	var logCfg logger.Config
	if err := env.InitConfig(&logCfg); err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitBadConfig
	}
	logger.InitDefault(logCfg)

	var cfg Config
	if err := env.InitConfig(&cfg); err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitBadConfig
	}

	var smtpCfg smtp.Config
	if err := env.InitConfig(&smtpCfg); err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitBadConfig
	}

	for _, c := range initTelemetry(ctx, cfg) {
		defer func(c io.Closer) {
			if err := c.Close(); err != nil {
				logger.FromContextWithErr(ctx, err).Warn("failed to flush telemetry")
			}
		}(c)
	}

	var sender mail.Sender = smtp.NewSender(smtpCfg, nil)
	if cfg.DryRun {
		sender = noop.NewSender()
	}
	defer sender.Close()

	if err := sender.Send(ctx, cfg.Request(), cfg.Token, cfg.ImagePath, cfg.Count); err != nil {
		fmt.Fprintf(stderr, "Could not send email: %v\n", err)
		if cause := errors.Cause(err); cause != nil && cause != err {
			fmt.Fprintf(stderr, "Error source: %v\n", cause)
		}
		return exitSendFailed
	}

	fmt.Fprintln(stdout, "Email sent successfully!")
	return exitOK
}

// initTelemetry starts the optional tracing and metrics exporters. Failures are
// logged and the send proceeds without them.
func initTelemetry(ctx context.Context, cfg Config) []io.Closer {
	var closers []io.Closer

	if cfg.TracingEnabled {
		var tracingCfg otlp.Config
		if err := env.InitConfig(&tracingCfg); err != nil {
			logger.FromContextWithErr(ctx, err).Warn("tracing disabled")
		} else if provider, err := tracing.Init(otlp.NewProviderBuilder(tracingCfg)); err != nil {
			logger.FromContextWithErr(ctx, err).Warn("tracing disabled")
		} else {
			closers = append(closers, provider)
		}
	}

	if cfg.MetricsEnabled {
		var metricsCfg metrics.Config
		if err := env.InitConfig(&metricsCfg); err != nil {
			logger.FromContextWithErr(ctx, err).Warn("metrics disabled")
		} else if closer, err := metrics.InitDefault(metricsCfg); err != nil {
			logger.FromContextWithErr(ctx, err).Warn("metrics disabled")
		} else {
			closers = append(closers, closer)
		}
	}

	return closers
}
