package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/illarion/icmsf/internal/core"
	"github.com/illarion/icmsf/internal/crypto"
)

// ImportOptions control how an imported profile is stored
type ImportOptions struct {
	Name     string // library name, defaults to user@host
	Legacy   bool
	Strategy string // conflict policy, empty selects the configured one
	Print    bool   // show the profile instead of storing it
}

// Import decrypts file and stores the profile
func Import(ctx context.Context, file string, opts ImportOptions) {
	s := newSession()

	password := GetPasswordOrExit("Enter password: ", false)
	defer crypto.ClearBytes(password)

	m, root, base := s.manager(file)
	defer root.Close()

	p, err := m.Import(ctx, base, password, openOptions(opts.Legacy)...)
	if err != nil {
		HandleError(err)
	}

	if opts.Print {
		out, err := json.MarshalIndent(p.Redacted(), "", "  ")
		if err != nil {
			HandleError(err)
		}
		fmt.Println(string(out))
		return
	}

	policy := opts.Strategy
	if policy == "" {
		policy = s.cfg.Conflict
	}
	strategy, err := core.ParseStrategy(policy)
	if err != nil {
		HandleError(err)
	}

	name := opts.Name
	if name == "" {
		name = p.DefaultName()
	}

	source, err := filepath.Abs(file)
	if err != nil {
		source = file
	}

	lib := s.openLibrary()
	defer lib.Close()

	result, err := lib.Save(name, p, strategy, source)
	if err != nil {
		HandleError(err)
	}

	switch result.Action {
	case core.SaveCreated:
		fmt.Printf("Imported %s as %s\n", file, result.Name)
	case core.SaveReplaced:
		fmt.Printf("Replaced %s with %s\n", result.Name, file)
	case core.SaveUnchanged:
		fmt.Printf("%s is unchanged\n", result.Name)
	case core.SaveKeptBoth:
		fmt.Printf("Kept %s, imported profile saved as %s\n", name, result.Name)
	case core.SaveKeptLocal:
		fmt.Printf("Kept stored %s\n", result.Name)
	default:
		fmt.Printf("Skipped %s\n", result.Name)
	}
}
