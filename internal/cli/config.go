package cli

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/adnumaro/storyarn/pkg/errors"
)

// defaultConfigPath is looked up when --config is not given. A missing
// file is not an error; every setting has a usable default.
const defaultConfigPath = "storyarn.toml"

// Config holds the CLI and server settings loaded from a TOML file.
type Config struct {
	// Project is the path of the JSON project file used by the in-memory
	// store. Ignored when a Mongo URI is configured.
	Project string `toml:"project"`

	Server ServerConfig `toml:"server"`
	Mongo  MongoConfig  `toml:"mongo"`
	Redis  RedisConfig  `toml:"redis"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// MongoConfig selects the MongoDB-backed store when URI is non-empty.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// RedisConfig selects the Redis-backed flow locker when Addr is non-empty.
type RedisConfig struct {
	Addr           string `toml:"addr"`
	LockTTLSeconds int    `toml:"lock_ttl_seconds"`
}

// LockTTL returns the configured lease duration, or zero to use the
// locker's default.
func (c RedisConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

func defaultConfig() Config {
	return Config{
		Project: "project.json",
		Server:  ServerConfig{Addr: ":8080"},
		Mongo:   MongoConfig{Database: "storyarn"},
	}
}

// loadConfig reads the TOML config at path, or the default path when path
// is empty. A missing default file yields the built-in defaults; a
// missing explicit file is an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "load config %s", path)
	}
	return cfg, nil
}
