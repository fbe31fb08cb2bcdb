package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"errors"
	"fmt"
)

const (
	KeySize   = 32 // AES-256 key size
	NonceSize = 16 // GCM nonce size used by every container version
	TagSize   = 16 // GCM authentication tag size
	MACSize   = 64 // HMAC-SHA512 output size
)

var (
	ErrInvalidKey        = errors.New("invalid key size")
	ErrInvalidNonce      = errors.New("invalid nonce size")
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrAuthFailed        = errors.New("authentication failed")
)

// newGCM builds AES-256-GCM with the 16-byte nonce used by the container format.
func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Seal encrypts plaintext using AES-256-GCM and returns the ciphertext and
// the detached authentication tag.
func Seal(key, nonce, plaintext []byte) (ciphertext, tag []byte, err error) {
	if len(nonce) != NonceSize {
		return nil, nil, ErrInvalidNonce
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - TagSize

	ciphertext = sealed[:split:split]
	tag = make([]byte, TagSize)
	copy(tag, sealed[split:])
	return ciphertext, tag, nil
}

// Open decrypts and verifies ciphertext against its detached tag.
// On tag mismatch it returns ErrAuthFailed and no plaintext.
func Open(key, nonce, ciphertext, tag []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonce
	}
	if len(tag) != TagSize {
		return nil, ErrInvalidCiphertext
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ciphertext)+TagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	defer ClearBytes(sealed)

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}

	return plaintext, nil
}

// ComputeMAC returns HMAC-SHA512 of data under key.
func ComputeMAC(key, data []byte) []byte {
	mac := hmac.New(sha512.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// VerifyMAC recomputes the MAC over data and compares it with tag in
// constant time.
func VerifyMAC(key, data, tag []byte) bool {
	if len(tag) != MACSize {
		return false
	}
	computed := ComputeMAC(key, data)
	return hmac.Equal(computed, tag)
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
