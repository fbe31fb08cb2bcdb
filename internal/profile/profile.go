// Package profile defines the connection profile carried inside icmsf files.
package profile

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

const (
	DefaultSSHPort = 22
	DefaultAPIPort = 3000
	RecordVersion  = "1.0"

	redacted = "[REDACTED]"
)

var ErrInvalidProfile = errors.New("invalid profile")

// Profile is the plaintext record exported between installations.
// Field names match the JSON written by existing exporters.
type Profile struct {
	Version     string `json:"version"`
	ServerIP    string `json:"serverIP"`
	SSHPort     int    `json:"sshPort"`
	APIPort     int    `json:"apiPort"`
	Certificate string `json:"certificate"`
	Username    string `json:"username"`
	CreatedAt   int64  `json:"createdAt"` // Unix milliseconds
}

// New creates a profile with defaults filled in and the creation time set to now.
func New(serverIP, username string) *Profile {
	return &Profile{
		Version:   RecordVersion,
		ServerIP:  serverIP,
		SSHPort:   DefaultSSHPort,
		APIPort:   DefaultAPIPort,
		Username:  username,
		CreatedAt: time.Now().UnixMilli(),
	}
}

// Validate checks the fields a usable connection needs.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.ServerIP) == "" {
		return fmt.Errorf("%w: server address is empty", ErrInvalidProfile)
	}
	if strings.ContainsAny(p.ServerIP, " \t/") {
		return fmt.Errorf("%w: server address %q is not a host", ErrInvalidProfile, p.ServerIP)
	}
	if err := validPort("ssh", p.SSHPort); err != nil {
		return err
	}
	if err := validPort("api", p.APIPort); err != nil {
		return err
	}
	if strings.TrimSpace(p.Username) == "" {
		return fmt.Errorf("%w: username is empty", ErrInvalidProfile)
	}
	return nil
}

func validPort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: %s port %d out of range", ErrInvalidProfile, name, port)
	}
	return nil
}

// Address returns host:port for the SSH endpoint.
func (p *Profile) Address() string {
	return net.JoinHostPort(p.ServerIP, fmt.Sprint(p.SSHPort))
}

// Created returns CreatedAt as a time.
func (p *Profile) Created() time.Time {
	return time.UnixMilli(p.CreatedAt)
}

// HasCertificate reports whether credential material is attached.
func (p *Profile) HasCertificate() bool {
	return p.Certificate != ""
}

// Redacted returns a copy safe for display: the certificate is replaced by a
// placeholder.
func (p *Profile) Redacted() *Profile {
	c := *p
	if c.Certificate != "" {
		c.Certificate = redacted
	}
	return &c
}

// Equal reports whether two profiles carry the same data.
func (p *Profile) Equal(other *Profile) bool {
	if p == nil || other == nil {
		return p == other
	}
	return *p == *other
}

// DefaultName is the library name used for an imported profile when the user
// does not choose one.
func (p *Profile) DefaultName() string {
	return p.Username + "@" + p.ServerIP
}
