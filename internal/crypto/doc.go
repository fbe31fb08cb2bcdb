// Package crypto provides cryptographic operations for icmsf containers.
//
// Encryption uses AES-256-GCM with:
//   - 32-byte key derived from password via PBKDF2
//   - 16-byte random nonce per export
//   - 16-byte detached authentication tag
//
// Key derivation is versioned by the container format:
//   - current: PBKDF2-HMAC-SHA512, 600,000 iterations, 64-byte salt
//   - legacy:  PBKDF2-HMAC-SHA256, 100,000 iterations, 32-byte salt
//
// The current format also derives a 64-byte HMAC-SHA512 key from the same
// password and a domain-separated salt (see AuthSalt).
//
// Memory safety:
//   - Derived keys live in memguard buffers; call Keys.Destroy() when done
//   - Use ClearBytes() to zero other sensitive data after use
package crypto
