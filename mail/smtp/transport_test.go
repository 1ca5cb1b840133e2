package smtp

import (
	"context"
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	gomail "gopkg.in/mail.v2"

	"github.com/pure-golang/esim-mailer/mail"
	"github.com/pure-golang/esim-mailer/mail/message"
)

func staticToken(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
}

func TestConfigure_Providers(t *testing.T) {
	cases := []struct {
		provider mail.Provider
		from     string
		host     string
	}{
		{mail.Gmail, "test@gmail.com", "smtp.gmail.com"},
		{mail.Outlook, "test@outlook.com", "smtp-mail.outlook.com"},
	}

	for _, tc := range cases {
		t.Run(tc.provider.String(), func(t *testing.T) {
			tr, err := Configure(tc.provider, tc.from, staticToken("token"))
			require.NoError(t, err)

			assert.Equal(t, tc.provider, tr.Provider())
			host, port := tr.Addr()
			assert.Equal(t, tc.host, host)
			assert.Equal(t, 587, port)

			d := tr.dialer
			assert.Equal(t, gomail.MandatoryStartTLS, d.StartTLSPolicy)
			assert.False(t, d.SSL)
			require.NotNil(t, d.TLSConfig)
			assert.Equal(t, tc.host, d.TLSConfig.ServerName)
			assert.Equal(t, uint16(tls.VersionTLS12), d.TLSConfig.MinVersion)
			assert.False(t, d.TLSConfig.InsecureSkipVerify)

			// no password based fallback can be negotiated
			assert.Empty(t, d.Username)
			assert.Empty(t, d.Password)
			require.IsType(t, &xoauth2Auth{}, d.Auth)
			assert.Equal(t, tc.from, d.Auth.(*xoauth2Auth).username)

			assert.Zero(t, d.Timeout)
			assert.False(t, d.RetryFailure)
		})
	}
}

func TestConfigure_LocalName(t *testing.T) {
	tr, err := Configure(mail.Gmail, "test@gmail.com", staticToken("token"), WithConfig(Config{LocalName: "mailer.example.com"}))
	require.NoError(t, err)
	assert.Equal(t, "mailer.example.com", tr.dialer.LocalName)
}

func TestConfigure_UnknownProvider(t *testing.T) {
	_, err := Configure(mail.Provider(9), "test@gmail.com", staticToken("token"))
	require.Error(t, err)
	assert.ErrorIs(t, err, mail.ErrSMTP)
}

func TestConfigure_NilTokenSource(t *testing.T) {
	_, err := Configure(mail.Outlook, "test@outlook.com", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, mail.ErrSMTP)
	assert.Contains(t, err.Error(), "Outlook")
}

func TestConfigure_EmptyRelayHost(t *testing.T) {
	_, err := Configure(mail.Gmail, "test@gmail.com", staticToken("token"), WithRelay("", 587))
	require.Error(t, err)
	assert.ErrorIs(t, err, mail.ErrSMTP)
	assert.Contains(t, err.Error(), "failed to connect to Gmail SMTP")
}

func TestConfigure_TLSNotBoundToHost(t *testing.T) {
	_, err := Configure(mail.Gmail, "test@gmail.com", staticToken("token"),
		WithTLSConfig(func(string) *tls.Config { return &tls.Config{ServerName: "other.example"} }))
	require.Error(t, err)
	assert.ErrorIs(t, err, mail.ErrSMTP)
	assert.Contains(t, err.Error(), "failed to configure TLS for Gmail")
}

func TestTransport_SendCanceledContext(t *testing.T) {
	relay := startFakeRelay(t, true, "good")
	tr, err := Configure(mail.Gmail, "test@gmail.com", staticToken("good"), relay.options()...)
	require.NoError(t, err)

	msg, err := message.Build(mail.Request{From: "test@gmail.com", To: "to@example.com"}, "s", "b", nil, message.NewContentID())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = tr.Send(ctx, msg)
	require.Error(t, err)
	assert.ErrorIs(t, err, mail.ErrSMTP)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, relay.conns.Load())
}
