package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables holding the portal credentials.
const (
	EnvUsername = "PGE_USERNAME"
	EnvPassword = "PGE_PASSWORD"
)

// DefaultEnvFile is the dotenv file loaded from the current directory.
const DefaultEnvFile = ".env"

// LoadEnvFile loads variables from a dotenv file into the process
// environment without overriding variables that are already set. A
// missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// ApplyEnv fills the username and password from the environment when
// they are not already set.
func (c *Config) ApplyEnv() {
	c.applyEnv(os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) {
	if c.Username == "" {
		c.Username = getenv(EnvUsername)
	}
	if c.Password == "" {
		c.Password = getenv(EnvPassword)
	}
}
