// Package payload converts profiles to and from the plaintext carried inside
// a container. The current format compresses JSON with gzip; the legacy
// format stores JSON as-is.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/illarion/icmsf/internal/crypto"
	"github.com/illarion/icmsf/internal/profile"
)

// MaxDecodedSize bounds the decompressed payload.
const MaxDecodedSize = 16 << 20

var (
	ErrDecompress = errors.New("payload decompression failed")
	ErrParse      = errors.New("payload is not a valid profile")
)

// Encode serializes p to JSON and gzips it when compress is set.
func Encode(p *profile.Profile, compress bool) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}
	if !compress {
		return data, nil
	}
	defer crypto.ClearBytes(data)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress profile: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress profile: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode. Decompression problems return ErrDecompress; bytes
// that are not a JSON profile object return ErrParse.
func Decode(data []byte, compressed bool) (*profile.Profile, error) {
	raw := data
	if compressed {
		inflated, err := decompress(data)
		if err != nil {
			return nil, err
		}
		defer crypto.ClearBytes(inflated)
		raw = inflated
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: not a JSON object", ErrParse)
	}

	var p profile.Profile
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &p, nil
}

func decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, MaxDecodedSize+1))
	if err != nil {
		crypto.ClearBytes(out)
		return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	if len(out) > MaxDecodedSize {
		crypto.ClearBytes(out)
		return nil, fmt.Errorf("%w: payload exceeds %d bytes", ErrDecompress, MaxDecodedSize)
	}
	return out, nil
}
