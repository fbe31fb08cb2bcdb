package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/icmsf/internal/crypto"
)

// Diff compares an icmsf file with a stored profile
func Diff(ctx context.Context, file, name string, legacy bool) {
	s := newSession()
	lib := s.openLibrary()
	defer lib.Close()

	// Fail on a missing profile before asking for a password
	if _, err := lib.Get(name); err != nil {
		HandleError(err)
	}

	password := GetPasswordOrExit("Enter password: ", false)
	defer crypto.ClearBytes(password)

	m, root, base := s.manager(file)
	defer root.Close()

	p, err := m.Import(ctx, base, password, openOptions(legacy)...)
	if err != nil {
		HandleError(err)
	}

	diff, err := lib.Diff(name, p)
	if err != nil {
		HandleError(err)
	}
	if diff == "" {
		fmt.Printf("No differences between %s and %s\n", file, name)
		return
	}
	fmt.Print(diff)
}
