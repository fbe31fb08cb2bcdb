package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/illarion/icmsf/internal/core"
	"github.com/illarion/icmsf/internal/crypto"
	"github.com/illarion/icmsf/internal/git"
)

// Export writes the named profile to an encrypted file. An empty output
// selects <export_dir>/<name>.icmsf.
func Export(ctx context.Context, name, output string) {
	s := newSession()
	lib := s.openLibrary()
	defer lib.Close()

	p, err := lib.Get(name)
	if err != nil {
		HandleError(err)
	}

	if output == "" {
		output = filepath.Join(s.cfg.ExportDir, name+core.FileExtension)
	}

	password := GetPasswordOrExit("Enter export password: ", true)
	defer crypto.ClearBytes(password)

	m, root, file := s.manager(output)
	defer root.Close()

	result, err := m.Export(ctx, p, password, file)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Exported %s to %s (%s, %s)\n", name, output, result.Version, formatSize(int64(result.Size)))

	status := git.CheckExportLocation(root.Path(), file)
	if warning := status.Warning(output); warning != "" {
		fmt.Fprintln(os.Stderr, warning)
	}
}
