package playlist

import (
	"os"
	"path/filepath"
)

// WriteFile validates the playlist text and writes it to path, creating
// parent directories as needed.
func WriteFile(path, content string) error {
	if err := Validate(content); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}
