package smtp

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"math/big"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const gmailChallenge = `{"status":"400","schemes":"Bearer","scope":"https://mail.google.com/"}`

// generateTestCert generates a self-signed certificate for 127.0.0.1.
func generateTestCert(t *testing.T) (tls.Certificate, *x509.CertPool) {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"Fake Relay"}, CommonName: "127.0.0.1"},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}

	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)

	leaf, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	pool := x509.NewCertPool()
	pool.AddCert(leaf)

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv, Leaf: leaf}, pool
}

// fakeRelay is a minimal submission server speaking STARTTLS and XOAUTH2.
type fakeRelay struct {
	listener   net.Listener
	tlsConfig  *tls.Config
	roots      *x509.CertPool
	startTLS   bool
	validToken string
	conns      atomic.Int32

	mu       sync.Mutex
	auths    []string
	rcpts    []string
	messages []string
}

func startFakeRelay(t *testing.T, startTLS bool, validToken string) *fakeRelay {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cert, roots := generateTestCert(t)
	r := &fakeRelay{
		listener:   listener,
		tlsConfig:  &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12},
		roots:      roots,
		startTLS:   startTLS,
		validToken: validToken,
	}

	go r.serve()
	t.Cleanup(func() { _ = listener.Close() })

	return r
}

func (r *fakeRelay) port() int {
	return r.listener.Addr().(*net.TCPAddr).Port
}

// options points a Sender or Transport at the relay and trusts its certificate.
func (r *fakeRelay) options() []TransportOption {
	return []TransportOption{
		WithRelay("127.0.0.1", r.port()),
		WithTLSConfig(func(host string) *tls.Config {
			return &tls.Config{ServerName: host, RootCAs: r.roots, MinVersion: tls.VersionTLS12}
		}),
	}
}

func (r *fakeRelay) serve() {
	for {
		conn, err := r.listener.Accept()
		if err != nil {
			return
		}
		r.conns.Add(1)
		go r.handle(conn)
	}
}

func (r *fakeRelay) handle(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	tp := textproto.NewConn(conn)
	encrypted := false

	_ = tp.PrintfLine("220 127.0.0.1 ESMTP fake relay")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}

		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
		switch verb {
		case "EHLO", "HELO":
			_ = tp.PrintfLine("250-127.0.0.1")
			if r.startTLS && !encrypted {
				_ = tp.PrintfLine("250-STARTTLS")
			}
			_ = tp.PrintfLine("250 AUTH XOAUTH2 PLAIN LOGIN")
		case "STARTTLS":
			_ = tp.PrintfLine("220 2.0.0 Ready to start TLS")
			tlsConn := tls.Server(conn, r.tlsConfig)
			if err := tlsConn.Handshake(); err != nil {
				return
			}
			conn = tlsConn
			tp = textproto.NewConn(tlsConn)
			encrypted = true
		case "AUTH":
			r.auth(tp, line)
		case "MAIL":
			_ = tp.PrintfLine("250 2.1.0 OK")
		case "RCPT":
			r.mu.Lock()
			r.rcpts = append(r.rcpts, line)
			r.mu.Unlock()
			_ = tp.PrintfLine("250 2.1.5 OK")
		case "DATA":
			_ = tp.PrintfLine("354 Go ahead")
			data, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			r.mu.Lock()
			r.messages = append(r.messages, string(data))
			r.mu.Unlock()
			_ = tp.PrintfLine("250 2.0.0 OK queued")
		case "*":
			_ = tp.PrintfLine("501 5.5.2 Authentication canceled")
		case "QUIT":
			_ = tp.PrintfLine("221 2.0.0 closing connection")
			return
		default:
			_ = tp.PrintfLine("502 5.5.1 Unrecognized command")
		}
	}
}

// auth handles AUTH XOAUTH2 the way Gmail does: a 334 JSON challenge for a bad
// token, then 535 once the client sends its empty response.
func (r *fakeRelay) auth(tp *textproto.Conn, line string) {
	fields := strings.Fields(line)
	if len(fields) != 3 || fields[1] != "XOAUTH2" {
		_ = tp.PrintfLine("504 5.7.4 Unrecognized authentication type")
		return
	}

	payload, err := base64.StdEncoding.DecodeString(fields[2])
	if err != nil {
		_ = tp.PrintfLine("501 5.5.2 Cannot decode response")
		return
	}

	r.mu.Lock()
	r.auths = append(r.auths, string(payload))
	r.mu.Unlock()

	if strings.Contains(string(payload), "auth=Bearer "+r.validToken+"\x01") {
		_ = tp.PrintfLine("235 2.7.0 Accepted")
		return
	}

	_ = tp.PrintfLine("334 %s", base64.StdEncoding.EncodeToString([]byte(gmailChallenge)))
	if _, err := tp.ReadLine(); err != nil {
		return
	}
	_ = tp.PrintfLine("535 5.7.8 Username and Password not accepted")
}

func (r *fakeRelay) recorded() (auths, rcpts, messages []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.auths...), append([]string(nil), r.rcpts...), append([]string(nil), r.messages...)
}
