package testutil

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/partyplaylist/backend/src/utils"
)

// GetEnv reads key from the environment, loading the project .env first when one exists
func GetEnv(key string) string {
	envFile := filepath.Join(utils.FindProjectRoot(), ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			panic("Error loading .env file")
		}
	}

	return os.Getenv(key)
}
