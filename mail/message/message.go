// Package message assembles the multipart/related notification email: an HTML
// part followed by the QR code as an inline image bound by Content-ID.
package message

import (
	"io"
	netmail "net/mail"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	gomail "gopkg.in/mail.v2"

	"github.com/pure-golang/esim-mailer/mail"
	"github.com/pure-golang/esim-mailer/mail/template"
)

// ImageContentType is the media type of the inline QR attachment.
const ImageContentType = "image/png"

const contentIDPrefix = "qr_image_cid@"

// Message is a fully assembled email, valid for a single submission.
type Message struct {
	msg       *gomail.Message
	contentID string
}

// NewContentID returns a fresh Content-ID for the inline image.
func NewContentID() string {
	return contentIDPrefix + uuid.NewString()
}

// Compose renders req with tpl, binds a new Content-ID into the body and builds the message.
func Compose(tpl *template.Template, req mail.Request, image []byte, count int) (*Message, error) {
	subject := tpl.Subject(req, count)
	body := tpl.Body(req)

	contentID := NewContentID()
	body = template.InjectContentID(body, contentID)

	return Build(req, subject, body, image, contentID)
}

// Build assembles the message. bodyHTML must already reference contentID.
// Bcc is set only when req.Bcc is non-empty.
func Build(req mail.Request, subject, bodyHTML string, image []byte, contentID string) (*Message, error) {
	if contentID == "" {
		return nil, mail.NewMessageError(errors.New("empty content id"), "failed to build email")
	}

	from, err := netmail.ParseAddress(req.From)
	if err != nil {
		return nil, mail.NewMessageError(err, "invalid from email address")
	}
	to, err := netmail.ParseAddress(req.To)
	if err != nil {
		return nil, mail.NewMessageError(err, "invalid to email address")
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", from.Address, from.Name)
	m.SetAddressHeader("To", to.Address, to.Name)

	if req.Bcc != "" {
		bcc, err := netmail.ParseAddress(req.Bcc)
		if err != nil {
			return nil, mail.NewMessageError(err, "invalid bcc email address")
		}
		m.SetAddressHeader("Bcc", bcc.Address, bcc.Name)
	}

	m.SetHeader("Subject", subject)
	m.SetBody("text/html", bodyHTML)
	m.Embed(contentID,
		gomail.SetHeader(map[string][]string{
			"Content-Type":        {ImageContentType},
			"Content-ID":          {"<" + contentID + ">"},
			"Content-Disposition": {"inline"},
		}),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(image)
			return err
		}),
	)

	return &Message{msg: m, contentID: contentID}, nil
}

// ContentID returns the identifier of the inline image part.
func (m *Message) ContentID() string { return m.contentID }

// Header returns the values of a top-level header, including Bcc.
func (m *Message) Header(field string) []string { return m.msg.GetHeader(field) }

// WriteTo writes the RFC 5322 form of the message. Bcc is not written.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	n, err := m.msg.WriteTo(w)
	return n, errors.Wrap(err, "failed to write email")
}

// Raw exposes the underlying message for submission.
func (m *Message) Raw() *gomail.Message { return m.msg }
