package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"hash"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/pbkdf2"
)

const (
	AuthKeySize = 64 // HMAC-SHA512 key size

	// authSaltTag separates the MAC key's salt from the encryption key's salt.
	authSaltTag = "hmac"
)

var ErrInvalidKDFParams = errors.New("invalid key derivation parameters")

// Hash selects the PRF used inside PBKDF2.
type Hash int

const (
	SHA256 Hash = iota
	SHA512
)

func (h Hash) String() string {
	switch h {
	case SHA256:
		return "SHA-256"
	case SHA512:
		return "SHA-512"
	default:
		return "unknown"
	}
}

func (h Hash) new() (func() hash.Hash, bool) {
	switch h {
	case SHA256:
		return sha256.New, true
	case SHA512:
		return sha512.New, true
	default:
		return nil, false
	}
}

// KDFParams describes one container version's key derivation.
type KDFParams struct {
	Hash       Hash
	Iterations int
	AuthKey    bool // also derive the independent MAC key
}

// Keys holds derived key material in locked, guarded memory.
// Destroy must be called on every path once the keys are no longer needed.
type Keys struct {
	enc  *memguard.LockedBuffer
	auth *memguard.LockedBuffer
}

// DeriveKeys derives the encryption key, and the MAC key when params ask for
// one, from password and salt using PBKDF2.
//
// The MAC key uses the same password with the salt SHA-512(salt || "hmac"),
// so the two keys are independent even though they share one stored salt.
func DeriveKeys(password, salt []byte, params KDFParams) (*Keys, error) {
	prf, ok := params.Hash.new()
	if !ok || params.Iterations <= 0 || len(salt) == 0 {
		return nil, ErrInvalidKDFParams
	}

	keys := &Keys{
		enc: memguard.NewBufferFromBytes(pbkdf2.Key(password, salt, params.Iterations, KeySize, prf)),
	}

	if params.AuthKey {
		authSalt := AuthSalt(salt)
		keys.auth = memguard.NewBufferFromBytes(pbkdf2.Key(password, authSalt, params.Iterations, AuthKeySize, prf))
	}

	return keys, nil
}

// AuthSalt returns the domain-separated salt used for the MAC key.
func AuthSalt(salt []byte) []byte {
	h := sha512.New()
	h.Write(salt)
	h.Write([]byte(authSaltTag))
	return h.Sum(nil)
}

// EncryptionKey returns a view of the 32-byte encryption key. The slice is
// only valid until Destroy.
func (k *Keys) EncryptionKey() []byte {
	return k.enc.Bytes()
}

// AuthKey returns a view of the MAC key, or nil when none was derived.
func (k *Keys) AuthKey() []byte {
	if k.auth == nil {
		return nil
	}
	return k.auth.Bytes()
}

// Destroy wipes and releases all key material.
func (k *Keys) Destroy() {
	if k == nil {
		return
	}
	if k.enc != nil {
		k.enc.Destroy()
	}
	if k.auth != nil {
		k.auth.Destroy()
	}
}
