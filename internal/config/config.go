package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	ClientConfig
	StorageConfig
	DevServerConfig
	CorsConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetOTLPEndpoint() string
}

type mainConfig struct {
	EnvVars
	Client
	Storage
	DevServer
	Cors
}

// New returns a Config populated from the environment, after loading any .env files.
// Missing .env files are not an error.
func New(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, err
	}
	return c, nil
}
