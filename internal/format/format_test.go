package format

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func filled(n int, b byte) []byte {
	return bytes.Repeat([]byte{b}, n)
}

func currentFrame() *Frame {
	return &Frame{
		Version:    VersionCurrent,
		Salt:       filled(64, 0x11),
		Nonce:      filled(16, 0x22),
		Tag:        filled(16, 0x33),
		Ciphertext: []byte("ciphertext"),
		MAC:        filled(64, 0x44),
	}
}

func TestLayoutSizes(t *testing.T) {
	legacy, ok := LayoutFor(VersionLegacy)
	if !ok {
		t.Fatal("Legacy layout missing")
	}
	if legacy.MinSize() != 64 {
		t.Errorf("Legacy min size: got %d, want 64", legacy.MinSize())
	}
	if legacy.Compressed || legacy.MACSize != 0 || legacy.KDF.AuthKey {
		t.Error("Legacy layout must not compress or authenticate")
	}

	current, ok := LayoutFor(VersionCurrent)
	if !ok {
		t.Fatal("Current layout missing")
	}
	if current.MinSize() != 162 {
		t.Errorf("Current min size: got %d, want 162", current.MinSize())
	}
	if current.KDF.Iterations != 600_000 {
		t.Errorf("Current iterations: got %d", current.KDF.Iterations)
	}

	if _, ok := LayoutFor(2); ok {
		t.Error("Unknown version reported a layout")
	}
}

func TestMarshalParse(t *testing.T) {
	f := currentFrame()

	data, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if len(data) != 162+len(f.Ciphertext) {
		t.Fatalf("Container size: got %d", len(data))
	}
	if binary.BigEndian.Uint16(data) != 1 {
		t.Errorf("Version prefix: got % x", data[:2])
	}
	if !bytes.Equal(data[len(data)-64:], f.MAC) {
		t.Error("MAC is not the trailing field")
	}

	got, err := Parse(data, false)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got.Version != VersionCurrent ||
		!bytes.Equal(got.Salt, f.Salt) ||
		!bytes.Equal(got.Nonce, f.Nonce) ||
		!bytes.Equal(got.Tag, f.Tag) ||
		!bytes.Equal(got.Ciphertext, f.Ciphertext) ||
		!bytes.Equal(got.MAC, f.MAC) {
		t.Errorf("Parsed frame differs: %+v", got)
	}

	signed, err := got.SignedBytes()
	if err != nil {
		t.Fatalf("SignedBytes failed: %v", err)
	}
	if !bytes.Equal(signed, data[:len(data)-64]) {
		t.Error("Signed bytes are not everything before the MAC")
	}
}

func TestParseEmptyCiphertext(t *testing.T) {
	f := currentFrame()
	f.Ciphertext = nil
	data, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	got, err := Parse(data, false)
	if err != nil {
		t.Fatalf("Parse of minimum-size container failed: %v", err)
	}
	if len(got.Ciphertext) != 0 {
		t.Errorf("Expected empty ciphertext, got %d bytes", len(got.Ciphertext))
	}
}

func TestLegacyFrame(t *testing.T) {
	f := &Frame{
		Version:    VersionLegacy,
		Salt:       filled(32, 0x01),
		Nonce:      filled(16, 0x02),
		Tag:        filled(16, 0x03),
		Ciphertext: []byte("{}"),
	}
	data, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if len(data) != 66 {
		t.Fatalf("Legacy container size: got %d, want 66", len(data))
	}

	// Random salt rarely starts with a zero word, so only forcing reads it.
	if _, err := Parse(data, false); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("Expected ErrUnsupportedVersion without force, got %v", err)
	}
	got, err := Parse(data, true)
	if err != nil {
		t.Fatalf("Parse(force=true) failed: %v", err)
	}
	if got.Version != VersionLegacy || !bytes.Equal(got.Ciphertext, []byte("{}")) || got.MAC != nil {
		t.Errorf("Unexpected legacy frame: %+v", got)
	}

	f.Salt[0], f.Salt[1] = 0, 0
	data, err = f.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, force := range []bool{false, true} {
		got, err := Parse(data, force)
		if err != nil {
			t.Fatalf("Parse(force=%v) of zero-prefixed salt failed: %v", force, err)
		}
		if got.Version != VersionLegacy || !bytes.Equal(got.Ciphertext, []byte("{}")) || got.MAC != nil {
			t.Errorf("Unexpected legacy frame (force=%v): %+v", force, got)
		}
	}
}

func TestForceLegacyIgnoresPrefix(t *testing.T) {
	data := filled(80, 0x00)
	data[1] = 0x01 // looks like version 1 but is too short for it

	if _, err := Parse(data, false); !errors.Is(err, ErrMalformedContainer) {
		t.Errorf("Expected ErrMalformedContainer without force, got %v", err)
	}

	f, err := Parse(data, true)
	if err != nil {
		t.Fatalf("Forced legacy parse failed: %v", err)
	}
	if len(f.Salt) != 32 || len(f.Ciphertext) != 16 {
		t.Errorf("Unexpected legacy split: salt=%d ct=%d", len(f.Salt), len(f.Ciphertext))
	}
}

func TestDetectErrors(t *testing.T) {
	withVersion := func(v uint16, size int) []byte {
		b := filled(size, 0xaa)
		binary.BigEndian.PutUint16(b, v)
		return b
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrMalformedContainer},
		{"below floor", filled(63, 0x00), ErrMalformedContainer},
		{"v1 below layout minimum", withVersion(1, 161), ErrMalformedContainer},
		{"version 2", withVersion(2, 400), ErrUnsupportedVersion},
		{"version 0xffff", withVersion(0xffff, 400), ErrUnsupportedVersion},
		{"short future version", withVersion(9, 64), ErrUnsupportedVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Detect(tt.data, false); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMarshalRejectsBadFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *Frame)
		want   error
	}{
		{"short salt", func(f *Frame) { f.Salt = f.Salt[:32] }, ErrMalformedContainer},
		{"long nonce", func(f *Frame) { f.Nonce = filled(24, 0) }, ErrMalformedContainer},
		{"missing tag", func(f *Frame) { f.Tag = nil }, ErrMalformedContainer},
		{"missing mac", func(f *Frame) { f.MAC = nil }, ErrMalformedContainer},
		{"unknown version", func(f *Frame) { f.Version = 7 }, ErrUnsupportedVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := currentFrame()
			tt.mutate(f)
			if _, err := f.Marshal(); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	data, _ := currentFrame().Marshal()

	h, err := Inspect(data, false)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if h.Version != VersionCurrent || !h.Authenticated || !h.Compressed {
		t.Errorf("Unexpected header: %+v", h)
	}
	if h.Size != len(data) || h.CiphertextSize != len("ciphertext") {
		t.Errorf("Unexpected sizes: %+v", h)
	}
	if h.Version.String() != "v1" || VersionLegacy.String() != "legacy" {
		t.Errorf("Version strings: %s, %s", h.Version, VersionLegacy)
	}
}
