package mail

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a send failure.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindUnsupportedProvider
	KindMessage
	KindSMTP
	KindIO
)

// Sentinels for errors.Is. Any *Error of the matching kind is equal to them.
var (
	ErrUnsupportedProvider = errors.New("unsupported email provider")
	ErrMessage             = errors.New("email message error")
	ErrSMTP                = errors.New("smtp error")
	ErrIO                  = errors.New("io error")
)

var sentinels = map[Kind]error{
	KindUnsupportedProvider: ErrUnsupportedProvider,
	KindMessage:             ErrMessage,
	KindSMTP:                ErrSMTP,
	KindIO:                  ErrIO,
}

// Error is the typed result of a failed send.
type Error struct {
	Kind     Kind
	Provider Provider // set for KindSMTP once the provider is known
	Address  string   // offending address for KindUnsupportedProvider
	Err      error
}

// NewUnsupportedProviderError reports that no provider serves address.
func NewUnsupportedProviderError(address string) *Error {
	return &Error{
		Kind:    KindUnsupportedProvider,
		Address: address,
		Err:     errors.Errorf("no supported email provider for '%s'", address),
	}
}

// NewMessageError wraps a failure to parse an address or assemble the MIME body.
func NewMessageError(err error, format string, args ...any) *Error {
	return &Error{Kind: KindMessage, Err: errors.Wrapf(err, format, args...)}
}

// NewSMTPError wraps a transport configuration or submission failure.
func NewSMTPError(p Provider, err error, format string, args ...any) *Error {
	return &Error{Kind: KindSMTP, Provider: p, Err: errors.Wrapf(err, format, args...)}
}

// NewIOError wraps a filesystem failure.
func NewIOError(err error, format string, args ...any) *Error {
	return &Error{Kind: KindIO, Err: errors.Wrapf(err, format, args...)}
}

func (e *Error) Error() string {
	prefix := "unknown error"
	if s, ok := sentinels[e.Kind]; ok {
		prefix = s.Error()
	}
	if e.Err == nil {
		return prefix
	}
	return fmt.Sprintf("%s: %s", prefix, e.Err.Error())
}

func (e *Error) Unwrap() error { return e.Err }

// Cause returns the innermost error, so errors.Cause walks through Error.
func (e *Error) Cause() error { return errors.Cause(e.Err) }

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// String is used as a metric and log attribute.
func (k Kind) String() string {
	switch k {
	case KindUnsupportedProvider:
		return "unsupported_provider"
	case KindMessage:
		return "message"
	case KindSMTP:
		return "smtp"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}
