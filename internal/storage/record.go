package storage

import (
	"time"

	"github.com/google/uuid"

	"github.com/illarion/icmsf/internal/profile"
)

// Record is a stored profile. Profile.Certificate is always empty in a
// record; HasCertificate tells the library to look in the keyring.
type Record struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Profile        profile.Profile `json:"profile"`
	HasCertificate bool            `json:"hasCertificate"`
	Source         string          `json:"source,omitempty"` // file the profile was imported from
	Created        time.Time       `json:"created"`
	Modified       time.Time       `json:"modified"`
}

// NewRecord creates a record with a fresh ID. The certificate is stripped
// from the stored copy of p.
func NewRecord(name string, p *profile.Profile) *Record {
	now := time.Now()
	r := &Record{
		ID:      uuid.NewString(),
		Name:    name,
		Created: now,
	}
	r.SetProfile(p)
	r.Modified = now
	return r
}

// SetProfile replaces the stored profile, keeping the record's identity.
func (r *Record) SetProfile(p *profile.Profile) {
	r.Profile = *p
	r.HasCertificate = p.HasCertificate()
	r.Profile.Certificate = ""
	r.Modified = time.Now()
}
