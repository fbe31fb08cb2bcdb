package cmd

import (
	"fmt"
	"os"
)

// Remove deletes profiles from the store
func Remove(names []string) {
	if len(names) == 0 {
		fmt.Fprintf(os.Stderr, "Error: rm requires at least one profile name\n")
		fmt.Fprintf(os.Stderr, "Usage: icmsf rm <name> [name...]\n")
		os.Exit(1)
	}

	s := newSession()
	lib := s.openLibrary()
	defer lib.Close()

	for _, name := range names {
		if err := lib.Remove(name); err != nil {
			HandleError(err)
		}
		fmt.Printf("Removed %s\n", name)
	}

	// Compact database to reclaim space
	if err := lib.Compact(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: compaction failed: %s\n", err)
	}
}
