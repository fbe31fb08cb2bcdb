// Package storage provides the BBolt database behind the icmsf profile library.
//
// Database structure uses two buckets:
//   - config: store ID, format version, timestamps
//   - profiles: one JSON record per profile name
//
// Certificates are never written here; the library keeps them in the OS
// keyring and the record only notes that one exists.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package storage
