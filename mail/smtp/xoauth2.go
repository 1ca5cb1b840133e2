package smtp

import (
	"net/smtp"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const xoauth2Mechanism = "XOAUTH2"

var _ smtp.Auth = (*xoauth2Auth)(nil)

// xoauth2Auth implements the XOAUTH2 SASL mechanism. It is the only mechanism
// offered to the server: a bearer token must never travel as a password.
type xoauth2Auth struct {
	username string
	tokens   oauth2.TokenSource
	host     string
}

// XOAuth2Auth returns an smtp.Auth presenting tokens' access token for username.
func XOAuth2Auth(username string, tokens oauth2.TokenSource, host string) smtp.Auth {
	return &xoauth2Auth{username: username, tokens: tokens, host: host}
}

func (a *xoauth2Auth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS {
		return "", nil, errors.New("xoauth2: unencrypted connection")
	}
	if server.Name != a.host {
		return "", nil, errors.Errorf("xoauth2: wrong host name %q", server.Name)
	}

	tok, err := a.tokens.Token()
	if err != nil {
		return "", nil, errors.Wrap(err, "xoauth2: failed to get token")
	}

	resp := "user=" + a.username + "\x01auth=" + tok.Type() + " " + tok.AccessToken + "\x01\x01"
	return xoauth2Mechanism, []byte(resp), nil
}

// Next answers the server's error challenge with an empty response so that the
// server completes the exchange with its final status line.
func (a *xoauth2Auth) Next(_ []byte, more bool) ([]byte, error) {
	if more {
		return []byte{}, nil
	}
	return nil, nil
}
