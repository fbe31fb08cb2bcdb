package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket   = []byte("config")   // store ID, timestamps
	ProfilesBucket = []byte("profiles") // name -> Record JSON
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
	ConfigStoreID  = []byte("store_id")
)

var (
	ErrNotInitialized = errors.New("profile store not initialized")
	ErrNotFound       = errors.New("profile not found")
	ErrExists         = errors.New("profile already exists")
)

// Storage provides BBolt-based storage for profile records
type Storage struct {
	db *bolt.DB
}

// Open opens or creates a profile database
func Open(path string) (*Storage, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}

// Initialize creates the bucket structure and store ID. It is a no-op on an
// already initialized database.
func (s *Storage) Initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, ProfilesBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) != nil {
			return nil
		}

		if err := config.Put(ConfigVersion, []byte("1")); err != nil {
			return err
		}
		if err := config.Put(ConfigStoreID, []byte(uuid.NewString())); err != nil {
			return err
		}

		created, _ := time.Now().MarshalBinary()
		if err := config.Put(ConfigCreated, created); err != nil {
			return err
		}
		return config.Put(ConfigModified, created)
	})
}

// IsInitialized checks if the database has been initialized
func (s *Storage) IsInitialized() (bool, error) {
	var initialized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config != nil && config.Get(ConfigVersion) != nil {
			initialized = true
		}
		return nil
	})
	return initialized, err
}

// GetStoreID returns the ID that namespaces this store's keyring entries
func (s *Storage) GetStoreID() (string, error) {
	var id string
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		data := config.Get(ConfigStoreID)
		if data == nil {
			return fmt.Errorf("store_id not found")
		}
		id = string(data)
		return nil
	})
	return id, err
}

// GetModified retrieves the last modified timestamp
func (s *Storage) GetModified() (time.Time, error) {
	var modified time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		data := config.Get(ConfigModified)
		if data == nil {
			return fmt.Errorf("modified time not found")
		}
		return modified.UnmarshalBinary(data)
	})
	return modified, err
}

func touch(tx *bolt.Tx) error {
	modified, _ := time.Now().MarshalBinary()
	return tx.Bucket(ConfigBucket).Put(ConfigModified, modified)
}

// PutRecord stores r under its name, replacing any existing record.
func (s *Storage) PutRecord(r *Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		profiles := tx.Bucket(ProfilesBucket)
		if profiles == nil {
			return ErrNotInitialized
		}
		if err := profiles.Put([]byte(r.Name), data); err != nil {
			return err
		}
		return touch(tx)
	})
}

// CreateRecord stores r only if no record with its name exists.
func (s *Storage) CreateRecord(r *Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		profiles := tx.Bucket(ProfilesBucket)
		if profiles == nil {
			return ErrNotInitialized
		}
		if profiles.Get([]byte(r.Name)) != nil {
			return fmt.Errorf("%w: %s", ErrExists, r.Name)
		}
		if err := profiles.Put([]byte(r.Name), data); err != nil {
			return err
		}
		return touch(tx)
	})
}

// GetRecord returns the record stored under name, or nil if there is none.
func (s *Storage) GetRecord(name string) (*Record, error) {
	var record *Record
	err := s.db.View(func(tx *bolt.Tx) error {
		profiles := tx.Bucket(ProfilesBucket)
		if profiles == nil {
			return ErrNotInitialized
		}
		data := profiles.Get([]byte(name))
		if data == nil {
			return nil
		}
		record = &Record{}
		return json.Unmarshal(data, record)
	})
	return record, err
}

// ListRecords returns all records ordered by name.
func (s *Storage) ListRecords() ([]Record, error) {
	var records []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		profiles := tx.Bucket(ProfilesBucket)
		if profiles == nil {
			return ErrNotInitialized
		}
		return profiles.ForEach(func(k, v []byte) error {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("corrupt record %s: %w", k, err)
			}
			records = append(records, r)
			return nil
		})
	})
	return records, err
}

// HasRecord reports whether name is taken.
func (s *Storage) HasRecord(name string) (bool, error) {
	r, err := s.GetRecord(name)
	return r != nil, err
}

// DeleteRecord removes the record stored under name.
func (s *Storage) DeleteRecord(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		profiles := tx.Bucket(ProfilesBucket)
		if profiles == nil {
			return ErrNotInitialized
		}
		if profiles.Get([]byte(name)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		if err := profiles.Delete([]byte(name)); err != nil {
			return err
		}
		return touch(tx)
	})
}

// Compact creates a compacted copy of the database, removing unused space.
// This is useful after removing profiles to reclaim disk space.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	if err := bolt.Compact(dst, s.db, 0); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return fmt.Errorf("failed to replace database: %w", err)
	}
	os.Remove(backupPath)

	s.db, err = bolt.Open(srcPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}

	return nil
}
