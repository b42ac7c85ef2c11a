package config

import (
	"os"
	"path/filepath"
)

// findEnvFile resolves name (default .env) to an existing file. Absolute
// paths are checked as given; relative ones are looked up in dir and then in
// each parent directory, so commands run from a subdirectory still find the
// project's env file.
func findEnvFile(name, dir string) (string, error) {
	if name == "" {
		name = ".env"
	}
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", err
		}
		return name, nil
	}

	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
