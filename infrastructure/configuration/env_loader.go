package configuration

import (
	"errors"
	"io/fs"
	"os"

	"media-aggregator/infrastructure/logger"

	"github.com/joho/godotenv"
)

// LoadEnvFromFile loads KEY=VALUE pairs from env files such as config.env or
// .env, in order. Variables already present in the environment win, and an
// earlier file wins over a later one. It returns how many variables were set.
func LoadEnvFromFile(paths ...string) int {
	set := 0
	for _, p := range paths {
		vars, err := godotenv.Read(p)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.GetLogger().WithField("file", p).WithField("error", err).Warn("Failed reading env file")
			}
			continue
		}
		for key, val := range vars {
			if _, exists := os.LookupEnv(key); exists {
				continue
			}
			if err := os.Setenv(key, val); err == nil {
				set++
			}
		}
		logger.GetLogger().WithField("file", p).Debug("Loaded env file")
	}
	return set
}
