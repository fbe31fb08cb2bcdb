package cmd

import (
	"context"
	"fmt"
)

// Inspect prints the header of an icmsf file. Does not require a password.
func Inspect(ctx context.Context, file string, legacy bool) {
	s := newSession()

	m, root, base := s.manager(file)
	defer root.Close()

	h, err := m.InspectFile(ctx, base, openOptions(legacy)...)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("File:           %s\n", file)
	fmt.Printf("Format:         %s\n", h.Version)
	fmt.Printf("Size:           %s\n", formatSize(int64(h.Size)))
	fmt.Printf("Ciphertext:     %s\n", formatSize(int64(h.CiphertextSize)))
	fmt.Printf("Key derivation: PBKDF2-%s, %d iterations\n", h.KDFHash, h.KDFIterations)
	fmt.Printf("Compressed:     %s\n", yesNo(h.Compressed))
	fmt.Printf("Outer MAC:      %s\n", yesNo(h.Authenticated))
	fmt.Printf("Salt:           %x...\n", h.SaltFingerprint)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
