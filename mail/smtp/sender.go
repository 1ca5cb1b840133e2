package smtp

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/oauth2"

	"github.com/pure-golang/esim-mailer/logger"
	"github.com/pure-golang/esim-mailer/mail"
	"github.com/pure-golang/esim-mailer/mail/message"
	"github.com/pure-golang/esim-mailer/mail/template"
)

var _ mail.Sender = (*Sender)(nil)

// Sender implements mail.Sender over the provider's SMTP relay.
type Sender struct {
	mx         sync.Mutex
	cfg        Config
	template   *template.Template
	logger     *slog.Logger
	transport  []TransportOption
	instrument *instruments
	closed     bool
}

// SenderOptions contains options for creating a Sender.
type SenderOptions struct {
	Logger    *slog.Logger       // defaults to the logger found in ctx
	Template  *template.Template // defaults to template.New()
	Transport []TransportOption  // applied after Config
}

// NewSender creates a new SMTP Sender.
func NewSender(cfg Config, options *SenderOptions) *Sender {
	s := &Sender{
		cfg:        cfg,
		template:   template.New(),
		instrument: newInstruments(),
	}
	if options != nil {
		s.logger = options.Logger
		if options.Template != nil {
			s.template = options.Template
		}
		s.transport = options.Transport
	}
	return s
}

// Send reads the image, renders and builds the message, resolves the provider
// from req.From, configures a fresh transport and submits once.
// The returned error is a *mail.Error unless the sender is closed.
func (s *Sender) Send(ctx context.Context, req mail.Request, token, imagePath string, count int) (err error) {
	ctx, span := tracer.Start(ctx, "SMTP.Send")
	defer span.End()

	span.SetAttributes(
		attribute.String("smtp.from", req.From),
		attribute.Bool("smtp.bcc", req.Bcc != ""),
		attribute.Int("smtp.count", count),
	)

	var provider mail.Provider
	start := time.Now()
	defer func() {
		s.instrument.record(ctx, provider, err, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return
		}
		span.SetStatus(codes.Ok, "")
	}()

	if s.isClosed() {
		return errors.New("sender is closed")
	}

	l := s.log(ctx).With("from", req.From, "to", req.To, "count", count)
	l.Debug("sending email", "image", imagePath)

	image, err := os.ReadFile(imagePath)
	if err != nil {
		return mail.NewIOError(err, "failed to read image %s", imagePath)
	}

	msg, err := s.compose(ctx, req, image, count)
	if err != nil {
		return err
	}

	provider, err = mail.ResolveProvider(req.From)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("smtp.provider", provider.String()))
	l = l.With("provider", provider.String())

	opts := append([]TransportOption{WithConfig(s.cfg)}, s.transport...)
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	transport, err := Configure(provider, req.From, tokens, opts...)
	if err != nil {
		return err
	}

	host, port := transport.Addr()
	l.Debug("submitting email", "host", host, "port", port, "content_id", msg.ContentID())

	if err := transport.Send(ctx, msg); err != nil {
		l.Debug("could not send email", "error", err.Error(), "cause", errors.Cause(err).Error())
		return err
	}

	l.Info("email sent")
	return nil
}

func (s *Sender) compose(ctx context.Context, req mail.Request, image []byte, count int) (*message.Message, error) {
	_, span := tracer.Start(ctx, "SMTP.Build")
	defer span.End()

	msg, err := message.Compose(s.template, req, image, count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("smtp.content_id", msg.ContentID()),
		attribute.Int("smtp.image_size", len(image)),
	)
	return msg, nil
}

func (s *Sender) log(ctx context.Context) *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.FromContext(ctx)
}

func (s *Sender) isClosed() bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.closed
}

// Close closes the sender.
func (s *Sender) Close() error {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.closed = true
	return nil
}
