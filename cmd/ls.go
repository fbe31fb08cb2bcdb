package cmd

import (
	"fmt"
	"time"
)

// Ls shows profiles in the local store
func Ls() {
	s := newSession()
	lib := s.openLibrary()
	defer lib.Close()

	// List records (no password or keyring access required)
	records, err := lib.List()
	if err != nil {
		HandleError(err)
	}

	if len(records) == 0 {
		fmt.Println("No profiles stored")
		fmt.Println("Use 'icmsf add' or 'icmsf import' to add one")
		return
	}

	fmt.Println("Profiles:")
	for _, r := range records {
		cert := " "
		if r.HasCertificate {
			cert = "*"
		}
		fmt.Printf("  %s %-24s %s@%s (api %d, modified %s)\n",
			cert, r.Name, r.Profile.Username, r.Profile.Address(), r.Profile.APIPort,
			r.Modified.Format(time.DateOnly))
	}
	fmt.Println()
	fmt.Println("* certificate stored in the OS keyring")
}
