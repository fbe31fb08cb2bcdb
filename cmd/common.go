package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/awnumar/memguard"
	"github.com/sirupsen/logrus"

	"github.com/illarion/icmsf/internal/config"
	"github.com/illarion/icmsf/internal/core"
	"github.com/illarion/icmsf/internal/format"
	"github.com/illarion/icmsf/internal/keyring"
	"github.com/illarion/icmsf/internal/logging"
	"github.com/illarion/icmsf/internal/security"
)

// session holds what every command needs after startup
type session struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func newSession() *session {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		HandleError(err)
	}
	logger, err := logging.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		HandleError(err)
	}
	return &session{cfg: cfg, logger: logger}
}

func (s *session) openLibrary() *core.Library {
	lib, err := core.OpenLibrary(s.cfg.Store, keyring.Store{})
	if err != nil {
		HandleError(err)
	}
	s.logger.WithField("store", s.cfg.Store).Debug("Opened profile store")
	return lib
}

// manager returns a Manager confined to the directory holding file, and the
// name of file inside it. The caller closes the returned RootFS.
func (s *session) manager(file string) (*core.Manager, *security.RootFS, string) {
	abs, err := filepath.Abs(file)
	if err != nil {
		HandleError(err)
	}
	root, err := security.NewRootFS(filepath.Dir(abs))
	if err != nil {
		HandleError(err)
	}
	return core.NewManager(root, core.WithLogger(s.logger)), root, filepath.Base(abs)
}

func openOptions(legacy bool) []core.OpenOption {
	if legacy {
		return []core.OpenOption{core.WithFormat(format.VersionLegacy)}
	}
	return nil
}

// GetPasswordOrExit reads the password from ICMSF_PASSWORD or the terminal.
// The caller is responsible for calling crypto.ClearBytes on the result.
func GetPasswordOrExit(prompt string, confirm bool) []byte {
	password, err := core.GetPassword(prompt, confirm)
	if err != nil {
		HandleError(err)
	}
	return password
}

// HandleError prints a message for err and exits
func HandleError(err error) {
	fmt.Fprint(os.Stderr, errorMessage(err))
	memguard.SafeExit(1)
}

const legacyHint = "Files from older releases may need --legacy\n"

// errorMessage returns the text HandleError prints for err
func errorMessage(err error) string {
	switch core.KindOf(err) {
	case core.KindWeakPassword:
		return fmt.Sprintf("Error: password must be at least %d characters\n", core.MinPasswordLength)
	case core.KindMalformedContainer:
		return "Error: not an icmsf file, or the file is truncated\n" + legacyHint
	case core.KindUnsupportedVersion:
		// Legacy files start with random salt, which usually reads as an unknown version
		return "Error: unknown file version; the file may be from a newer version of icmsf\n" + legacyHint
	case core.KindIntegrityFailure:
		return "Error: wrong password, or the file was modified\n"
	case core.KindAuthenticationFailure:
		return "Error: wrong password, or the file is corrupted\n"
	case core.KindDecompressionFailure, core.KindPayloadParseFailure:
		return "Error: file decrypted but its contents are damaged\n"
	}

	switch {
	case errors.Is(err, core.ErrProfileNotFound):
		return fmt.Sprintf("Error: %s\nUse 'icmsf ls' to see stored profiles\n", err)
	case errors.Is(err, core.ErrProfileExists):
		return fmt.Sprintf("Error: %s\nUse 'icmsf rm' first or choose another name\n", err)
	default:
		return fmt.Sprintf("Error: %s\n", err)
	}
}

// formatSize formats a file size in human-readable form
func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)

	switch {
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
