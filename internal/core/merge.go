package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/term"

	"github.com/illarion/icmsf/internal/profile"
)

// MergeStrategy defines how to handle a name collision during import
type MergeStrategy int

const (
	StrategyAsk         MergeStrategy = iota // Ask user for each conflict
	StrategyKeepLocal                        // Always keep the stored profile
	StrategyUseImported                      // Always replace with the imported profile
	StrategyKeepBoth                         // Store the imported profile as <name>.imported
	StrategyAbort                            // Fail on any conflict
)

// ConflictResolution defines the user's choice for a specific conflict
type ConflictResolution int

const (
	ResolutionKeepLocal ConflictResolution = iota
	ResolutionUseImported
	ResolutionKeepBoth
	ResolutionSkip
)

// ParseStrategy maps a config or flag value to a MergeStrategy.
func ParseStrategy(s string) (MergeStrategy, error) {
	switch s {
	case "", "ask":
		return StrategyAsk, nil
	case "keep-local":
		return StrategyKeepLocal, nil
	case "use-imported", "force":
		return StrategyUseImported, nil
	case "keep-both":
		return StrategyKeepBoth, nil
	case "abort":
		return StrategyAbort, nil
	default:
		return StrategyAsk, fmt.Errorf("unknown conflict strategy %q", s)
	}
}

// HandleConflict decides what to do when name already holds a profile that
// differs from the imported one.
func HandleConflict(name string, local, imported *profile.Profile, strategy MergeStrategy) (ConflictResolution, error) {
	switch strategy {
	case StrategyKeepLocal:
		return ResolutionKeepLocal, nil
	case StrategyUseImported:
		return ResolutionUseImported, nil
	case StrategyKeepBoth:
		return ResolutionKeepBoth, nil
	case StrategyAbort:
		return ResolutionSkip, fmt.Errorf("conflict detected for %s (aborting)", name)
	}

	fmt.Printf("\nwarning: conflict detected: %s\n", name)
	fmt.Printf("   A stored profile with this name differs from the imported one\n")
	fmt.Printf("\nOptions:\n")
	fmt.Printf("  [l] Keep stored profile\n")
	fmt.Printf("  [i] Use imported profile (overwrite)\n")
	fmt.Printf("  [b] Keep both (save imported as %s)\n", name+importedSuffix)
	fmt.Printf("  [d] Show differences\n")
	fmt.Printf("  [x] Skip\n")

	for {
		fmt.Printf("\nYour choice: ")
		choice, err := readChoice()
		if err != nil {
			return ResolutionSkip, err
		}

		switch choice {
		case "l":
			return ResolutionKeepLocal, nil
		case "i":
			return ResolutionUseImported, nil
		case "b":
			return ResolutionKeepBoth, nil
		case "d":
			diff, err := GenerateUnifiedDiff(name, local, imported)
			if err != nil {
				fmt.Printf("Error generating diff: %v\n", err)
				continue
			}
			fmt.Print(diff)
		case "x":
			return ResolutionSkip, nil
		default:
			fmt.Printf("Invalid choice. Please enter l, i, b, d, x\n")
		}
	}
}

// readChoice reads a single character choice from the terminal
func readChoice() (string, error) {
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		// Not a terminal: fall back to line input
		var input string
		_, err := fmt.Scanln(&input)
		if err != nil {
			return "", err
		}
		return strings.ToLower(strings.TrimSpace(input)), nil
	}
	defer func() { _ = term.Restore(int(os.Stdin.Fd()), oldState) }()

	buf := make([]byte, 1)
	_, err = os.Stdin.Read(buf)
	if err != nil {
		return "", err
	}

	choice := strings.ToLower(string(buf[0]))
	fmt.Printf("%s\r\n", choice)
	return choice, nil
}

// displayJSON renders p for diffs. The certificate is replaced by a short
// fingerprint so a changed certificate still shows up as a changed line.
func displayJSON(p *profile.Profile) (string, error) {
	shown := *p
	if shown.Certificate != "" {
		sum := sha256.Sum256([]byte(p.Certificate))
		shown.Certificate = "[REDACTED sha256:" + hex.EncodeToString(sum[:8]) + "]"
	}
	data, err := json.MarshalIndent(&shown, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render profile: %w", err)
	}
	return string(data) + "\n", nil
}

// GenerateUnifiedDiff generates a unified diff between a stored and an
// imported profile. Returns an empty string if they are identical.
func GenerateUnifiedDiff(name string, local, imported *profile.Profile) (string, error) {
	if local.Equal(imported) {
		return "", nil
	}

	localStr, err := displayJSON(local)
	if err != nil {
		return "", err
	}
	importedStr, err := displayJSON(imported)
	if err != nil {
		return "", err
	}

	dmp := diffmatchpatch.New()

	a, b, lineArray := dmp.DiffLinesToChars(localStr, importedStr)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	patches := dmp.PatchMake(localStr, diffs)
	if len(patches) == 0 {
		return "", nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("--- stored/%s\n", name))
	result.WriteString(fmt.Sprintf("+++ imported/%s\n", name))
	result.WriteString(dmp.PatchToText(patches))

	return result.String(), nil
}
