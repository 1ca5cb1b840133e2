package mail

import (
	"context"
	"io"
)

// Sender delivers an eSIM notification email.
type Sender interface {
	// Send renders req, attaches the QR image found at imagePath and submits it
	// with the OAuth2 access token. count is appended to the subject.
	Send(ctx context.Context, req Request, token, imagePath string, count int) error
	io.Closer
}

// Request holds the caller-supplied fields of a single notification.
type Request struct {
	// Envelope
	From string // sender address, also selects the provider
	To   string
	Bcc  string // optional, omitted when empty

	// Template fields
	Provider   string // eSIM provider label, e.g. "Airalo"
	Name       string // recipient name
	DataAmount string // "5GB"
	TimePeriod string // "30 days"
	Location   string // "Egypt"
}
