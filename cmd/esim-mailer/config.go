package main

import (
	"github.com/pure-golang/esim-mailer/mail"
)

// Config is the flat record the mailer core consumes.
type Config struct {
	From string `envconfig:"MAIL_FROM" required:"true"`
	To   string `envconfig:"MAIL_TO" required:"true"`
	Bcc  string `envconfig:"MAIL_BCC"`

	Provider   string `envconfig:"ESIM_PROVIDER" required:"true"`
	Name       string `envconfig:"RECIPIENT_NAME" required:"true"`
	DataAmount string `envconfig:"DATA_AMOUNT" required:"true"`
	TimePeriod string `envconfig:"TIME_PERIOD" required:"true"`
	Location   string `envconfig:"LOCATION" required:"true"`

	ImagePath string `envconfig:"QR_IMAGE_PATH" required:"true"`
	Token     string `envconfig:"OAUTH_TOKEN" required:"true"`
	Count     int    `envconfig:"MAIL_COUNT" default:"1"`

	DryRun         bool `envconfig:"MAIL_DRY_RUN" default:"false"`
	TracingEnabled bool `envconfig:"TRACING_ENABLED" default:"false"`
	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"false"`
}

func (c Config) Request() mail.Request {
	return mail.Request{
		From:       c.From,
		To:         c.To,
		Bcc:        c.Bcc,
		Provider:   c.Provider,
		Name:       c.Name,
		DataAmount: c.DataAmount,
		TimePeriod: c.TimePeriod,
		Location:   c.Location,
	}
}
