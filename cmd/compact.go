package cmd

import (
	"fmt"
	"os"
)

// Compact compacts the profile store to reclaim unused space
func Compact() {
	s := newSession()
	lib := s.openLibrary()
	defer lib.Close()

	// Get file size before
	info, err := os.Stat(s.cfg.Store)
	if err != nil {
		HandleError(err)
	}
	sizeBefore := info.Size()

	if err := lib.Compact(); err != nil {
		HandleError(err)
	}

	// Get file size after
	info, err = os.Stat(s.cfg.Store)
	if err != nil {
		HandleError(err)
	}
	sizeAfter := info.Size()

	fmt.Printf("Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(sizeAfter))
}
