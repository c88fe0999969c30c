package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const defaultEnvPath = "~/.config/storyreel/.env"

// LoadEnvFiles loads KEY=value pairs from dotenv files into the process
// environment. Variables that are already set are left alone and missing files
// are skipped. With no paths it reads ./.env and ~/.config/storyreel/.env.
// It returns the files that were read.
func LoadEnvFiles(paths ...string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{".env", defaultEnvPath}
	}
	loaded := make([]string, 0, len(paths))
	for _, path := range paths {
		expanded, err := expandPath(path)
		if err != nil {
			return loaded, err
		}
		if _, err := os.Stat(expanded); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(expanded); err != nil {
			return loaded, fmt.Errorf("load env file %q: %w", expanded, err)
		}
		loaded = append(loaded, expanded)
	}
	return loaded, nil
}
