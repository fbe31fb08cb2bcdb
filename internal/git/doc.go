// Package git warns when an exported profile file lands inside a git work
// tree where it could be committed.
//
// An encrypted export is still a credential: it can be brute-forced
// offline. The checks report whether the file is tracked by git and
// whether it is covered by .gitignore.
package git
