package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// ExportStatus describes how git sees an exported file
type ExportStatus struct {
	IsRepo  bool
	Tracked bool // already in the index
	Ignored bool // matched by a .gitignore rule
}

// IsGitRepo checks if the directory is inside a git work tree
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	err := cmd.Run()
	return err == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()

	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir

	// git check-ignore exits 0 when the path is ignored
	return cmd.Run() == nil
}

// CheckExportLocation reports git's view of file inside workDir. Outside a
// repository, or without git installed, IsRepo is false.
func CheckExportLocation(workDir, file string) *ExportStatus {
	status := &ExportStatus{}
	if !IsGitRepo(workDir) {
		return status
	}
	status.IsRepo = true
	status.Tracked = IsTracked(workDir, file)
	status.Ignored = IsIgnored(workDir, file)
	return status
}

// Warning returns a message for the user, or "" when the file is safe.
func (s *ExportStatus) Warning(file string) string {
	switch {
	case !s.IsRepo:
		return ""
	case s.Tracked:
		return fmt.Sprintf("warning: %s is tracked by git (run: git rm --cached %s)", file, file)
	case !s.Ignored:
		return fmt.Sprintf("warning: %s is inside a git work tree and not in .gitignore", file)
	default:
		return ""
	}
}
