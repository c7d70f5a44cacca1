package pics

import (
	"fmt"
	"os"
)

// isValidFile checks that a file exists, is regular and is not empty (0 bytes).
func isValidFile(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file")
	}
	if info.Size() == 0 {
		return fmt.Errorf("file is 0 bytes (corrupted)")
	}
	return nil
}
