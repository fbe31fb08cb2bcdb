// Package keyring keeps certificate material in the OS keyring so the
// profile database never holds it.
package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "icmsf"

// ErrNotFound is returned when no secret is stored for a key.
var ErrNotFound = keyring.ErrNotFound

// Key returns the keyring account for a record in a store.
func Key(storeID, recordID string) string {
	return storeID + "/" + recordID
}

// SaveSecret stores a secret in the OS keyring
func SaveSecret(key, secret string) error {
	return keyring.Set(serviceName, key, secret)
}

// GetSecret retrieves a secret from the OS keyring
func GetSecret(key string) (string, error) {
	return keyring.Get(serviceName, key)
}

// DeleteSecret removes a secret from the OS keyring. A missing entry is
// not an error.
func DeleteSecret(key string) error {
	err := keyring.Delete(serviceName, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// HasSecret checks if a secret is stored for key
func HasSecret(key string) bool {
	_, err := keyring.Get(serviceName, key)
	return err == nil
}

// Store exposes the OS keyring through a value, for callers that take the
// secret store as a dependency.
type Store struct{}

func (Store) Save(key, secret string) error  { return SaveSecret(key, secret) }
func (Store) Get(key string) (string, error) { return GetSecret(key) }
func (Store) Delete(key string) error        { return DeleteSecret(key) }
