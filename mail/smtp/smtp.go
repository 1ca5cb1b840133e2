package smtp

import (
	"go.opentelemetry.io/otel"
)

var (
	tracer = otel.Tracer("github.com/pure-golang/esim-mailer/mail/smtp")
	meter  = otel.Meter("github.com/pure-golang/esim-mailer/mail/smtp")
)

// Config contains SMTP client parameters shared by every provider.
type Config struct {
	LocalName     string `envconfig:"SMTP_LOCAL_NAME"`                 // EHLO identity, "localhost" when empty
	TLSMinVersion uint16 `envconfig:"SMTP_TLS_MIN_VERSION" default:"771"` // tls.VersionTLS12
}
