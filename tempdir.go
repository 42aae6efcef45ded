package its

import (
	"fmt"
	"os"
)

const shmDir = "/dev/shm"

// TempDir creates a directory named after purpose, eg "logs" or "traces",
// for output of a run. The directory is created in /dev/shm when that is a
// directory, otherwise in the OS default temporary directory. The caller
// removes it when no longer needed.
func TempDir(purpose string) (string, error) {
	pattern := "camera-its-*"
	if purpose != "" {
		pattern = "camera-its-" + purpose + "-*"
	}
	if fi, err := os.Stat(shmDir); err == nil && fi.IsDir() {
		if dir, err := os.MkdirTemp(shmDir, pattern); err == nil {
			return dir, nil
		}
	}
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("making temporary %s directory: %v", purpose, err)
	}
	return dir, nil
}
