// Package format defines the binary layout of icmsf containers and the
// rules for telling versions apart.
//
// Current (version 1) layout, all integers big-endian:
//
//	[version:2][salt:64][nonce:16][tag:16][ciphertext:n][mac:64]
//
// The MAC covers every byte before it. Legacy files carry no version field:
//
//	[salt:32][nonce:16][tag:16][ciphertext:n]
package format

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/illarion/icmsf/internal/crypto"
)

// Version identifies a container layout.
type Version uint16

const (
	VersionLegacy  Version = 0
	VersionCurrent Version = 1

	versionFieldSize = 2

	// MinContainerSize is the smallest input worth inspecting; it is the
	// legacy minimum and the floor for every version.
	MinContainerSize = 64
)

var (
	ErrMalformedContainer = errors.New("malformed container")
	ErrUnsupportedVersion = errors.New("unsupported container version")
)

func (v Version) String() string {
	if v == VersionLegacy {
		return "legacy"
	}
	return fmt.Sprintf("v%d", uint16(v))
}

// Layout records the sizes and key derivation of one container version.
type Layout struct {
	Version         Version
	HasVersionField bool
	SaltSize        int
	NonceSize       int
	TagSize         int
	MACSize         int // zero when the version has no outer MAC
	KDF             crypto.KDFParams
	Compressed      bool
}

// LayoutFor returns the layout of v. The second result is false for versions
// this build does not know.
func LayoutFor(v Version) (Layout, bool) {
	switch v {
	case VersionLegacy:
		return Layout{
			Version:   VersionLegacy,
			SaltSize:  32,
			NonceSize: crypto.NonceSize,
			TagSize:   crypto.TagSize,
			KDF:       crypto.KDFParams{Hash: crypto.SHA256, Iterations: 100_000},
		}, true
	case VersionCurrent:
		return Layout{
			Version:         VersionCurrent,
			HasVersionField: true,
			SaltSize:        64,
			NonceSize:       crypto.NonceSize,
			TagSize:         crypto.TagSize,
			MACSize:         crypto.MACSize,
			KDF:             crypto.KDFParams{Hash: crypto.SHA512, Iterations: 600_000, AuthKey: true},
			Compressed:      true,
		}, true
	default:
		return Layout{}, false
	}
}

// HeaderSize is the number of bytes before the ciphertext.
func (l Layout) HeaderSize() int {
	n := l.SaltSize + l.NonceSize + l.TagSize
	if l.HasVersionField {
		n += versionFieldSize
	}
	return n
}

// MinSize is the size of a container with an empty ciphertext.
func (l Layout) MinSize() int {
	return l.HeaderSize() + l.MACSize
}

// Frame is a container split into its fields. Slices returned by Parse alias
// the input buffer.
type Frame struct {
	Version    Version
	Salt       []byte
	Nonce      []byte
	Tag        []byte
	Ciphertext []byte
	MAC        []byte
}

// Layout returns the layout of the frame's version.
func (f *Frame) Layout() (Layout, error) {
	l, ok := LayoutFor(f.Version)
	if !ok {
		return Layout{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, uint16(f.Version))
	}
	return l, nil
}

// SignedBytes returns the bytes the outer MAC covers: everything before it.
func (f *Frame) SignedBytes() ([]byte, error) {
	l, err := f.Layout()
	if err != nil {
		return nil, err
	}
	if err := f.checkSizes(l); err != nil {
		return nil, err
	}
	return f.appendHeader(l, make([]byte, 0, l.HeaderSize()+len(f.Ciphertext)+l.MACSize)), nil
}

// Marshal serializes the frame. For versions with an outer MAC, f.MAC must
// already be set.
func (f *Frame) Marshal() ([]byte, error) {
	l, err := f.Layout()
	if err != nil {
		return nil, err
	}
	if err := f.checkSizes(l); err != nil {
		return nil, err
	}
	if len(f.MAC) != l.MACSize {
		return nil, fmt.Errorf("%w: mac is %d bytes, want %d", ErrMalformedContainer, len(f.MAC), l.MACSize)
	}

	out := f.appendHeader(l, make([]byte, 0, l.HeaderSize()+len(f.Ciphertext)+l.MACSize))
	return append(out, f.MAC...), nil
}

func (f *Frame) appendHeader(l Layout, out []byte) []byte {
	if l.HasVersionField {
		out = binary.BigEndian.AppendUint16(out, uint16(f.Version))
	}
	out = append(out, f.Salt...)
	out = append(out, f.Nonce...)
	out = append(out, f.Tag...)
	return append(out, f.Ciphertext...)
}

func (f *Frame) checkSizes(l Layout) error {
	switch {
	case len(f.Salt) != l.SaltSize:
		return fmt.Errorf("%w: salt is %d bytes, want %d", ErrMalformedContainer, len(f.Salt), l.SaltSize)
	case len(f.Nonce) != l.NonceSize:
		return fmt.Errorf("%w: nonce is %d bytes, want %d", ErrMalformedContainer, len(f.Nonce), l.NonceSize)
	case len(f.Tag) != l.TagSize:
		return fmt.Errorf("%w: tag is %d bytes, want %d", ErrMalformedContainer, len(f.Tag), l.TagSize)
	}
	return nil
}

// Detect decides which layout applies to data without touching key material.
//
// Inputs shorter than MinContainerSize are malformed. With forceLegacy the
// legacy layout is used unconditionally. Otherwise the leading big-endian
// word selects the version: zero means a legacy file, known versions use
// their layout, and anything newer is ErrUnsupportedVersion.
func Detect(data []byte, forceLegacy bool) (Layout, error) {
	if len(data) < MinContainerSize {
		return Layout{}, fmt.Errorf("%w: %d bytes is below the %d byte minimum", ErrMalformedContainer, len(data), MinContainerSize)
	}

	v := VersionLegacy
	if !forceLegacy {
		v = Version(binary.BigEndian.Uint16(data))
	}

	l, ok := LayoutFor(v)
	if !ok {
		return Layout{}, fmt.Errorf("%w: %d (newest supported is %d)", ErrUnsupportedVersion, uint16(v), uint16(VersionCurrent))
	}
	if len(data) < l.MinSize() {
		return Layout{}, fmt.Errorf("%w: %d bytes is below the %d byte minimum for %s", ErrMalformedContainer, len(data), l.MinSize(), v)
	}
	return l, nil
}

// Parse splits data into a Frame. See Detect for version selection.
func Parse(data []byte, forceLegacy bool) (*Frame, error) {
	l, err := Detect(data, forceLegacy)
	if err != nil {
		return nil, err
	}

	off := 0
	next := func(n int) []byte {
		b := data[off : off+n : off+n]
		off += n
		return b
	}

	f := &Frame{Version: l.Version}
	if l.HasVersionField {
		next(versionFieldSize)
	}
	f.Salt = next(l.SaltSize)
	f.Nonce = next(l.NonceSize)
	f.Tag = next(l.TagSize)
	f.Ciphertext = next(len(data) - off - l.MACSize)
	if l.MACSize > 0 {
		f.MAC = next(l.MACSize)
	}
	return f, nil
}

// Header summarizes a container without decrypting it.
type Header struct {
	Version         Version
	Size            int
	CiphertextSize  int
	KDFHash         crypto.Hash
	KDFIterations   int
	Compressed      bool
	Authenticated   bool // carries an outer MAC
	SaltFingerprint []byte
}

// Inspect parses data and reports its header fields.
func Inspect(data []byte, forceLegacy bool) (*Header, error) {
	f, err := Parse(data, forceLegacy)
	if err != nil {
		return nil, err
	}
	l, _ := LayoutFor(f.Version)

	fp := make([]byte, 4)
	copy(fp, f.Salt)

	return &Header{
		Version:         f.Version,
		Size:            len(data),
		CiphertextSize:  len(f.Ciphertext),
		KDFHash:         l.KDF.Hash,
		KDFIterations:   l.KDF.Iterations,
		Compressed:      l.Compressed,
		Authenticated:   l.MACSize > 0,
		SaltFingerprint: fp,
	}, nil
}
