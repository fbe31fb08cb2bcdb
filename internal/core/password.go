package core

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/illarion/icmsf/internal/crypto"
)

const EnvPassword = "ICMSF_PASSWORD"

// ReadPassword reads a password from the terminal without echoing
func ReadPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)

	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	return password, nil
}

// ReadPasswordConfirm reads a password twice and ensures they match
func ReadPasswordConfirm() ([]byte, error) {
	password1, err := ReadPassword("Enter export password: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password1)

	password2, err := ReadPassword("Confirm password: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password2)

	if !crypto.ConstantTimeCompare(password1, password2) {
		return nil, fmt.Errorf("passwords do not match")
	}

	result := make([]byte, len(password1))
	copy(result, password1)
	return result, nil
}

// GetPasswordFromEnv reads the password from ICMSF_PASSWORD, or returns nil
func GetPasswordFromEnv() []byte {
	password := os.Getenv(EnvPassword)
	if password == "" {
		return nil
	}
	return []byte(password)
}

// GetPassword returns the password from the environment, prompting when it
// is unset. With confirm the prompt asks twice.
func GetPassword(prompt string, confirm bool) ([]byte, error) {
	if p := GetPasswordFromEnv(); p != nil {
		return p, nil
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		return nil, fmt.Errorf("%w: set %s or run interactively", ErrPasswordRequired, EnvPassword)
	}
	if confirm {
		return ReadPasswordConfirm()
	}
	return ReadPassword(prompt)
}
