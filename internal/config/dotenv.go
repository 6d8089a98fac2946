package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// maxEnvSearchDepth bounds how many parent directories are searched for .env.
const maxEnvSearchDepth = 6

// LoadDotEnv loads the nearest .env file. Variables already present in the
// environment are left untouched. A missing file is not an error.
func LoadDotEnv(logger *slog.Logger) {
	path, err := findEnvFile()
	if err != nil {
		logger.Warn("failed to locate .env", "error", err)
		return
	}
	if path == "" {
		logger.Debug(".env not found in current or parent directories")
		return
	}
	if err := godotenv.Load(path); err != nil {
		logger.Warn("failed to load .env", "path", path, "error", err)
		return
	}
	logger.Info("loaded env file", "path", path)
}

func findEnvFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for i := 0; i < maxEnvSearchDepth; i++ {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}
