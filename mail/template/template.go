// Package template renders the eSIM notification subject and body by literal
// placeholder substitution.
//
// Values are inserted verbatim: nothing is HTML-escaped and substitution runs
// field by field in a fixed order. A value that itself contains a placeholder
// token is therefore expanded by any later pass, e.g. a provider label of
// "{{name}}" becomes the recipient name in the body.
package template

import (
	_ "embed"
	"strconv"
	"strings"

	"github.com/pure-golang/esim-mailer/mail"
)

const (
	PlaceholderProvider   = "{{provider}}"
	PlaceholderName       = "{{name}}"
	PlaceholderDataAmount = "{{data_amount}}"
	PlaceholderTimePeriod = "{{time_period}}"
	PlaceholderLocation   = "{{location}}"

	// ContentIDPlaceholder is resolved by InjectContentID once the message's
	// Content-ID exists, not by Body.
	ContentIDPlaceholder = "{{QR_CID}}"
)

const defaultSubject = "[" + PlaceholderProvider + "] " + PlaceholderLocation + " eSIM"

//go:embed email_template.html
var defaultBody string

// Template holds the subject and body templates.
type Template struct {
	subject string
	body    string
}

// New returns the bundled eSIM template.
func New() *Template {
	return &Template{
		subject: defaultSubject,
		body:    defaultBody,
	}
}

// Subject renders "[provider] location eSIM - count".
func (t *Template) Subject(req mail.Request, count int) string {
	s := strings.ReplaceAll(t.subject, PlaceholderProvider, req.Provider)
	s = strings.ReplaceAll(s, PlaceholderLocation, req.Location)
	return s + " - " + strconv.Itoa(count)
}

// Body renders the HTML body. ContentIDPlaceholder is left in place.
func (t *Template) Body(req mail.Request) string {
	b := strings.ReplaceAll(t.body, PlaceholderProvider, req.Provider)
	b = strings.ReplaceAll(b, PlaceholderName, req.Name)
	b = strings.ReplaceAll(b, PlaceholderDataAmount, req.DataAmount)
	b = strings.ReplaceAll(b, PlaceholderTimePeriod, req.TimePeriod)
	b = strings.ReplaceAll(b, PlaceholderLocation, req.Location)
	return b
}

// InjectContentID resolves ContentIDPlaceholder in a rendered body.
func InjectContentID(body, contentID string) string {
	return strings.ReplaceAll(body, ContentIDPlaceholder, contentID)
}
