package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/illarion/icmsf/internal/keyring"
	"github.com/illarion/icmsf/internal/profile"
	"github.com/illarion/icmsf/internal/storage"
)

const (
	DirPermSecure     = 0700 // Directory: owner rwx only
	MaxImportedCopies = 100  // Max numbered .imported.N copies
	MaxNameLength     = 128

	importedSuffix = ".imported"
)

var (
	ErrProfileExists   = storage.ErrExists
	ErrProfileNotFound = storage.ErrNotFound
	ErrInvalidName     = errors.New("invalid profile name")
)

// SecretStore keeps certificate material outside the profile database.
type SecretStore interface {
	Save(key, secret string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// Library is the local collection of named profiles.
type Library struct {
	db      *storage.Storage
	secrets SecretStore
	storeID string
}

// SaveAction reports what Library.Save did.
type SaveAction int

const (
	SaveCreated SaveAction = iota
	SaveReplaced
	SaveUnchanged
	SaveKeptLocal
	SaveKeptBoth
	SaveSkipped
)

func (a SaveAction) String() string {
	switch a {
	case SaveCreated:
		return "created"
	case SaveReplaced:
		return "replaced"
	case SaveUnchanged:
		return "unchanged"
	case SaveKeptLocal:
		return "kept stored"
	case SaveKeptBoth:
		return "kept both"
	default:
		return "skipped"
	}
}

// SaveResult is the outcome of Library.Save. Name is where the imported
// profile ended up, which differs from the requested name for SaveKeptBoth.
type SaveResult struct {
	Name   string
	Action SaveAction
}

// OpenLibrary opens or creates the profile database at path.
func OpenLibrary(path string, secrets SecretStore) (*Library, error) {
	if err := os.MkdirAll(filepath.Dir(path), DirPermSecure); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	id, err := db.GetStoreID()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read store ID: %w", err)
	}

	return &Library{db: db, secrets: secrets, storeID: id}, nil
}

// Close releases the database
func (l *Library) Close() error {
	return l.db.Close()
}

// ValidateName checks that name can be used as a library key and as a file
// name for export.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, MaxNameLength)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: contains control characters", ErrInvalidName)
		}
	}
	return nil
}

func (l *Library) secretKey(r *storage.Record) string {
	return keyring.Key(l.storeID, r.ID)
}

// storeSecret writes or clears the keyring entry for r to match p.
func (l *Library) storeSecret(r *storage.Record, p *profile.Profile) error {
	if p.HasCertificate() {
		if err := l.secrets.Save(l.secretKey(r), p.Certificate); err != nil {
			return fmt.Errorf("failed to store certificate in keyring: %w", err)
		}
		return nil
	}
	return l.secrets.Delete(l.secretKey(r))
}

// Add stores p under a new name.
func (l *Library) Add(name string, p *profile.Profile) error {
	return l.add(name, p, "")
}

func (l *Library) add(name string, p *profile.Profile, source string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	r := storage.NewRecord(name, p)
	r.Source = source

	if err := l.storeSecret(r, p); err != nil {
		return err
	}
	if err := l.db.CreateRecord(r); err != nil {
		_ = l.secrets.Delete(l.secretKey(r))
		return err
	}
	return nil
}

// Get returns the profile stored under name, certificate included.
func (l *Library) Get(name string) (*profile.Profile, error) {
	r, err := l.db.GetRecord(name)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return l.load(r)
}

func (l *Library) load(r *storage.Record) (*profile.Profile, error) {
	p := r.Profile
	if r.HasCertificate {
		cert, err := l.secrets.Get(l.secretKey(r))
		if err != nil {
			return nil, fmt.Errorf("failed to read certificate for %s from keyring: %w", r.Name, err)
		}
		p.Certificate = cert
	}
	return &p, nil
}

// List returns all stored records ordered by name. Certificates are not
// loaded.
func (l *Library) List() ([]storage.Record, error) {
	return l.db.ListRecords()
}

// Remove deletes the profile stored under name and its keyring entry.
func (l *Library) Remove(name string) error {
	r, err := l.db.GetRecord(name)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	if err := l.db.DeleteRecord(name); err != nil {
		return err
	}
	if r.HasCertificate {
		if err := l.secrets.Delete(l.secretKey(r)); err != nil {
			return fmt.Errorf("profile removed but keyring entry remains: %w", err)
		}
	}
	return nil
}

// Save stores an imported profile under name. When name already holds a
// different profile, strategy decides the outcome.
func (l *Library) Save(name string, p *profile.Profile, strategy MergeStrategy, source string) (*SaveResult, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	r, err := l.db.GetRecord(name)
	if err != nil {
		return nil, err
	}
	if r == nil {
		if err := l.add(name, p, source); err != nil {
			return nil, err
		}
		return &SaveResult{Name: name, Action: SaveCreated}, nil
	}

	local, err := l.load(r)
	if err != nil {
		return nil, err
	}
	if local.Equal(p) {
		return &SaveResult{Name: name, Action: SaveUnchanged}, nil
	}

	resolution, err := HandleConflict(name, local, p, strategy)
	if err != nil {
		return &SaveResult{Name: name, Action: SaveSkipped}, err
	}

	switch resolution {
	case ResolutionKeepLocal:
		return &SaveResult{Name: name, Action: SaveKeptLocal}, nil
	case ResolutionUseImported:
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if err := l.replace(r, p, source); err != nil {
			return nil, err
		}
		return &SaveResult{Name: name, Action: SaveReplaced}, nil
	case ResolutionKeepBoth:
		copyName, err := l.freeName(name + importedSuffix)
		if err != nil {
			return nil, err
		}
		if err := l.add(copyName, p, source); err != nil {
			return nil, err
		}
		return &SaveResult{Name: copyName, Action: SaveKeptBoth}, nil
	default:
		return &SaveResult{Name: name, Action: SaveSkipped}, nil
	}
}

// replace overwrites r with p. The record is written before the keyring so
// a failed database write leaves the stored certificate untouched; a failed
// keyring write puts the previous record back.
func (l *Library) replace(r *storage.Record, p *profile.Profile, source string) error {
	previous := *r
	r.SetProfile(p)
	r.Source = source
	if err := l.db.PutRecord(r); err != nil {
		return err
	}
	if err := l.storeSecret(r, p); err != nil {
		if rerr := l.db.PutRecord(&previous); rerr != nil {
			return fmt.Errorf("%w (restoring %s also failed: %v)", err, r.Name, rerr)
		}
		return err
	}
	return nil
}

// freeName returns base, or base.N for the first unused N.
func (l *Library) freeName(base string) (string, error) {
	candidate := base
	for i := 2; i <= MaxImportedCopies+1; i++ {
		taken, err := l.db.HasRecord(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s.%d", base, i)
	}
	return "", fmt.Errorf("too many imported copies of %s", base)
}

// Diff compares the profile stored under name with p.
func (l *Library) Diff(name string, p *profile.Profile) (string, error) {
	local, err := l.Get(name)
	if err != nil {
		return "", err
	}
	return GenerateUnifiedDiff(name, local, p)
}

// Compact reclaims space left by removed profiles.
func (l *Library) Compact() error {
	return l.db.Compact()
}
