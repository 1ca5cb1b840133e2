package mail

import (
	"strings"
)

// Provider is a webmail service whose SMTP relay can deliver the notification.
type Provider uint8

const (
	Gmail Provider = iota + 1
	Outlook
)

// SubmissionPort is the STARTTLS submission port shared by all providers.
const SubmissionPort = 587

// Profile is the static relay configuration of a Provider.
type Profile struct {
	Name string
	Host string
	Port int
}

var profiles = map[Provider]Profile{
	Gmail:   {Name: "Gmail", Host: "smtp.gmail.com", Port: SubmissionPort},
	Outlook: {Name: "Outlook", Host: "smtp-mail.outlook.com", Port: SubmissionPort},
}

var domains = map[string]Provider{
	"gmail.com":   Gmail,
	"outlook.com": Outlook,
	"hotmail.com": Outlook,
}

// ResolveProvider maps the domain after the last '@' of address to a Provider.
// Domains are matched literally: no case folding, no sub-domains.
func ResolveProvider(address string) (Provider, error) {
	i := strings.LastIndexByte(address, '@')
	if i < 0 {
		return 0, NewUnsupportedProviderError(address)
	}

	p, ok := domains[address[i+1:]]
	if !ok {
		return 0, NewUnsupportedProviderError(address)
	}

	return p, nil
}

// ProfileOf returns the relay profile of p. ok is false for unknown values.
func ProfileOf(p Provider) (Profile, bool) {
	prof, ok := profiles[p]
	return prof, ok
}

// String returns the display name, e.g. "Gmail".
func (p Provider) String() string {
	if prof, ok := profiles[p]; ok {
		return prof.Name
	}
	return "Unknown"
}
