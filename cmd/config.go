package cmd

import (
	"fmt"

	"github.com/illarion/icmsf/internal/config"
)

// ConfigShow prints the settings in effect, after environment overrides
func ConfigShow() {
	s := newSession()

	out, err := s.cfg.Encode()
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("# %s\n", config.DefaultPath())
	fmt.Print(string(out))
}

// ConfigInit writes a config file with default settings
func ConfigInit(force bool) {
	path := config.DefaultPath()
	if _, err := config.WriteDefault(path, force); err != nil {
		HandleError(err)
	}
	fmt.Printf("Wrote %s\n", path)
}
