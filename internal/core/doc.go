// Package core provides the main icmsf operations.
//
// Core operations include:
//   - Seal/Open: Encrypt a profile into a container and back
//   - Inspect: Report a container's version and sizes without a password
//   - Manager.Export/Import: The same, reading and writing files
//   - Library: The local store of named profiles
//
// Open checks a container in a fixed order and stops at the first failure:
// size, version, key derivation, outer MAC, AEAD tag, decompression, JSON.
// KindOf maps the returned error to one Kind.
//
// Conflict resolution when an imported profile collides with a stored one
// supports multiple strategies:
//   - Keep the stored profile
//   - Use the imported profile (overwrite)
//   - Keep both (saves the imported profile as <name>.imported)
//   - Abort
package core
