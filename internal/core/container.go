package core

import (
	"fmt"
	"unicode/utf8"

	"github.com/illarion/icmsf/internal/crypto"
	"github.com/illarion/icmsf/internal/format"
	"github.com/illarion/icmsf/internal/payload"
	"github.com/illarion/icmsf/internal/profile"
)

// OpenOption adjusts how Open and Inspect read a container.
type OpenOption func(*openOptions)

type openOptions struct {
	version *format.Version
}

// WithFormat makes Open treat the input as version v instead of detecting
// it. Pass format.VersionLegacy for files written before versioning, whose
// first bytes are random salt.
func WithFormat(v format.Version) OpenOption {
	return func(o *openOptions) {
		o.version = &v
	}
}

func buildOpenOptions(opts []OpenOption) openOptions {
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o openOptions) forceLegacy() bool {
	return o.version != nil && *o.version == format.VersionLegacy
}

func (o openOptions) parse(data []byte) (*format.Frame, error) {
	f, err := format.Parse(data, o.forceLegacy())
	if err != nil {
		return nil, err
	}
	if o.version != nil && f.Version != *o.version {
		return nil, fmt.Errorf("%w: expected %s container, found %s", ErrMalformedContainer, *o.version, f.Version)
	}
	return f, nil
}

// Seal encrypts p under password in the current container format.
// Passwords shorter than MinPasswordLength characters are rejected before
// any key derivation. Every call uses a fresh salt and nonce.
func Seal(p *profile.Profile, password []byte) ([]byte, error) {
	if utf8.RuneCount(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	l, _ := format.LayoutFor(format.VersionCurrent)
	return sealLayout(l, p, password)
}

func sealLayout(l format.Layout, p *profile.Profile, password []byte) ([]byte, error) {
	salt, err := crypto.GenerateRandom(l.SaltSize)
	if err != nil {
		return nil, err
	}
	nonce, err := crypto.GenerateRandom(l.NonceSize)
	if err != nil {
		return nil, err
	}

	keys, err := crypto.DeriveKeys(password, salt, l.KDF)
	if err != nil {
		return nil, fmt.Errorf("failed to derive keys: %w", err)
	}
	defer keys.Destroy()

	plaintext, err := payload.Encode(p, l.Compressed)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(plaintext)

	ciphertext, tag, err := crypto.Seal(keys.EncryptionKey(), nonce, plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt: %w", err)
	}

	f := &format.Frame{
		Version:    l.Version,
		Salt:       salt,
		Nonce:      nonce,
		Tag:        tag,
		Ciphertext: ciphertext,
	}
	if l.MACSize > 0 {
		signed, err := f.SignedBytes()
		if err != nil {
			return nil, err
		}
		f.MAC = crypto.ComputeMAC(keys.AuthKey(), signed)
	}

	return f.Marshal()
}

// Open decrypts a container produced by Seal or by a legacy exporter.
//
// Checks run in order: size, version, key derivation, outer MAC (versioned
// formats), AEAD tag, decompression, JSON parse. The first failing check
// decides the error, and no plaintext is returned on any failure.
func Open(data, password []byte, opts ...OpenOption) (*profile.Profile, error) {
	o := buildOpenOptions(opts)

	f, err := o.parse(data)
	if err != nil {
		return nil, err
	}
	l, err := f.Layout()
	if err != nil {
		return nil, err
	}

	keys, err := crypto.DeriveKeys(password, f.Salt, l.KDF)
	if err != nil {
		return nil, fmt.Errorf("failed to derive keys: %w", err)
	}
	defer keys.Destroy()

	if l.MACSize > 0 {
		signed, err := f.SignedBytes()
		if err != nil {
			return nil, err
		}
		if !crypto.VerifyMAC(keys.AuthKey(), signed, f.MAC) {
			return nil, ErrIntegrityFailure
		}
	}

	plaintext, err := crypto.Open(keys.EncryptionKey(), f.Nonce, f.Ciphertext, f.Tag)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	defer crypto.ClearBytes(plaintext)

	return payload.Decode(plaintext, l.Compressed)
}

// Inspect reports a container's header without a password. It fails with
// the same size and version errors Open would.
func Inspect(data []byte, opts ...OpenOption) (*format.Header, error) {
	o := buildOpenOptions(opts)
	if _, err := o.parse(data); err != nil {
		return nil, err
	}
	return format.Inspect(data, o.forceLegacy())
}
