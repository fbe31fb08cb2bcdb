package core

import (
	"errors"

	"github.com/illarion/icmsf/internal/crypto"
	"github.com/illarion/icmsf/internal/format"
	"github.com/illarion/icmsf/internal/payload"
)

// MinPasswordLength is the minimum export password length in characters.
const MinPasswordLength = 12

var (
	ErrWeakPassword         = errors.New("password must be at least 12 characters")
	ErrMalformedContainer   = format.ErrMalformedContainer
	ErrUnsupportedVersion   = format.ErrUnsupportedVersion
	ErrIntegrityFailure     = errors.New("integrity check failed: wrong password or modified file")
	ErrAuthenticationFailed = crypto.ErrAuthFailed
	ErrDecompression        = payload.ErrDecompress
	ErrPayloadParse         = payload.ErrParse
	ErrPasswordRequired     = errors.New("password required")
)

// Kind classifies an error returned by Seal, Open or the Manager.
type Kind int

const (
	KindUnknown Kind = iota
	KindWeakPassword
	KindMalformedContainer
	KindUnsupportedVersion
	KindIntegrityFailure
	KindAuthenticationFailure
	KindDecompressionFailure
	KindPayloadParseFailure
)

var kindErrors = []struct {
	kind Kind
	err  error
}{
	{KindWeakPassword, ErrWeakPassword},
	{KindMalformedContainer, ErrMalformedContainer},
	{KindUnsupportedVersion, ErrUnsupportedVersion},
	{KindIntegrityFailure, ErrIntegrityFailure},
	{KindAuthenticationFailure, ErrAuthenticationFailed},
	{KindDecompressionFailure, ErrDecompression},
	{KindPayloadParseFailure, ErrPayloadParse},
}

// KindOf returns the kind of err. I/O and other errors are KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, ke := range kindErrors {
		if errors.Is(err, ke.err) {
			return ke.kind
		}
	}
	return KindUnknown
}

func (k Kind) String() string {
	switch k {
	case KindWeakPassword:
		return "WeakPassword"
	case KindMalformedContainer:
		return "MalformedContainer"
	case KindUnsupportedVersion:
		return "UnsupportedVersion"
	case KindIntegrityFailure:
		return "IntegrityFailure"
	case KindAuthenticationFailure:
		return "AuthenticationFailure"
	case KindDecompressionFailure:
		return "DecompressionFailure"
	case KindPayloadParseFailure:
		return "PayloadParseFailure"
	default:
		return "Unknown"
	}
}
