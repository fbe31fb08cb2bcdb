package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/icmsf/internal/crypto"
	"github.com/illarion/icmsf/internal/profile"
)

// AddOptions are the fields given on the add command line
type AddOptions struct {
	Host     string
	SSHPort  int
	APIPort  int
	User     string
	CertFile string
}

// Add stores a new profile built from opts
func Add(name string, opts AddOptions) {
	p := profile.New(opts.Host, opts.User)
	p.SSHPort = opts.SSHPort
	p.APIPort = opts.APIPort

	if opts.CertFile != "" {
		cert, err := os.ReadFile(opts.CertFile)
		if err != nil {
			HandleError(fmt.Errorf("failed to read certificate: %w", err))
		}
		p.Certificate = string(cert)
		crypto.ClearBytes(cert)
	}

	s := newSession()
	lib := s.openLibrary()
	defer lib.Close()

	if err := lib.Add(name, p); err != nil {
		HandleError(err)
	}

	fmt.Printf("Added %s (%s@%s)\n", name, p.Username, p.Address())
	if p.HasCertificate() {
		fmt.Println("Certificate stored in the OS keyring")
	}
}
