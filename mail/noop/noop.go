package noop

import (
	"context"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"github.com/pure-golang/esim-mailer/logger"
	"github.com/pure-golang/esim-mailer/mail"
	"github.com/pure-golang/esim-mailer/mail/message"
	"github.com/pure-golang/esim-mailer/mail/template"
)

var _ mail.Sender = (*Sender)(nil)

// Sender is a dry-run mail sender. It reads the image, builds the message and
// resolves the provider exactly like a real send, then discards the message.
type Sender struct {
	template *template.Template
	closed   bool
}

// NewSender creates a new no-op Sender.
func NewSender() *Sender {
	return &Sender{template: template.New()}
}

// Send validates the request and discards the built message.
func (n *Sender) Send(ctx context.Context, req mail.Request, _ string, imagePath string, count int) error {
	if n.closed {
		return errors.New("sender is closed")
	}

	image, err := os.ReadFile(imagePath)
	if err != nil {
		return mail.NewIOError(err, "failed to read image %s", imagePath)
	}

	msg, err := message.Compose(n.template, req, image, count)
	if err != nil {
		return err
	}

	provider, err := mail.ResolveProvider(req.From)
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Info("dry run, email discarded",
		slog.String("provider", provider.String()),
		slog.String("to", req.To),
		slog.Any("subject", msg.Header("Subject")),
		slog.String("content_id", msg.ContentID()),
	)
	return nil
}

// Close is a no-op.
func (n *Sender) Close() error {
	n.closed = true
	return nil
}
