package smtp

import (
	"context"
	"crypto/tls"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	gomail "gopkg.in/mail.v2"

	"github.com/pure-golang/esim-mailer/mail"
	"github.com/pure-golang/esim-mailer/mail/message"
)

// TransportOption customises a Transport before it is built.
type TransportOption func(*transportOptions)

type transportOptions struct {
	cfg       Config
	relay     *mail.Profile
	tlsConfig func(host string) *tls.Config
}

// WithConfig applies the shared client Config.
func WithConfig(cfg Config) TransportOption {
	return func(o *transportOptions) {
		o.cfg = cfg
	}
}

// WithRelay replaces the provider's relay host and port, e.g. for a local test server.
func WithRelay(host string, port int) TransportOption {
	return func(o *transportOptions) {
		o.relay = &mail.Profile{Host: host, Port: port}
	}
}

// WithTLSConfig overrides how TLS parameters are derived from the relay host.
func WithTLSConfig(f func(host string) *tls.Config) TransportOption {
	return func(o *transportOptions) {
		if f != nil {
			o.tlsConfig = f
		}
	}
}

// Transport is an SMTP client bound to one provider relay. It performs no
// network I/O until Send.
type Transport struct {
	provider mail.Provider
	dialer   *gomail.Dialer
}

// Configure builds a Transport for p: port 587, mandatory STARTTLS verified
// against the relay host, XOAUTH2 as the only authentication mechanism.
func Configure(p mail.Provider, from string, tokens oauth2.TokenSource, opts ...TransportOption) (*Transport, error) {
	o := transportOptions{cfg: Config{TLSMinVersion: tls.VersionTLS12}}
	for _, opt := range opts {
		opt(&o)
	}

	profile, ok := mail.ProfileOf(p)
	if !ok {
		return nil, mail.NewSMTPError(p, errors.Errorf("unknown provider %d", p), "failed to configure transport")
	}
	if o.relay != nil {
		profile.Host, profile.Port = o.relay.Host, o.relay.Port
	}
	if profile.Host == "" {
		return nil, mail.NewSMTPError(p, errors.New("empty relay host"), "failed to connect to %s SMTP", p)
	}
	if tokens == nil {
		return nil, mail.NewSMTPError(p, errors.New("no token source"), "failed to configure credentials for %s", p)
	}

	minVersion := o.cfg.TLSMinVersion
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}
	tlsConfig := &tls.Config{
		ServerName: profile.Host,
		MinVersion: minVersion,
	}
	if o.tlsConfig != nil {
		tlsConfig = o.tlsConfig(profile.Host)
	}
	if tlsConfig == nil || tlsConfig.ServerName != profile.Host {
		return nil, mail.NewSMTPError(p, errors.New("tls parameters not bound to relay host"), "failed to configure TLS for %s", p)
	}

	// Timeout and RetryFailure stay zero: callers bound the send with ctx and
	// exactly one submission is attempted.
	dialer := &gomail.Dialer{
		Host:           profile.Host,
		Port:           profile.Port,
		Auth:           XOAuth2Auth(from, tokens, profile.Host),
		TLSConfig:      tlsConfig,
		StartTLSPolicy: gomail.MandatoryStartTLS,
		LocalName:      o.cfg.LocalName,
	}

	return &Transport{provider: p, dialer: dialer}, nil
}

// Provider returns the provider the Transport was configured for.
func (t *Transport) Provider() mail.Provider { return t.provider }

// Addr returns host and port of the relay.
func (t *Transport) Addr() (string, int) { return t.dialer.Host, t.dialer.Port }

// Send opens a fresh connection, negotiates TLS, authenticates and submits msg.
func (t *Transport) Send(ctx context.Context, msg *message.Message) error {
	ctx, span := tracer.Start(ctx, "SMTP.Submit", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("smtp.provider", t.provider.String()),
		attribute.String("smtp.host", t.dialer.Host),
		attribute.Int("smtp.port", t.dialer.Port),
	)

	select {
	case <-ctx.Done():
		span.SetStatus(codes.Error, "context canceled")
		return mail.NewSMTPError(t.provider, ctx.Err(), "could not send email")
	default:
	}

	if err := t.dialer.DialAndSend(msg.Raw()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return mail.NewSMTPError(t.provider, err, "could not send email")
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
