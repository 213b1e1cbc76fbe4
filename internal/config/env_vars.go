package config

import (
	"os"
)

type EnvVars struct {
	AppName      string `env:"APP_NAME" envDefault:"bizcard"`
	Environment  string `env:"ENV" envDefault:"DEV"`
	LogLevel     string `env:"BIZCARD_LOG_LEVEL" envDefault:"info"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Environment == "" {
		return "DEV"
	}
	return e.Environment
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

// GetOTLPEndpoint returns the OTLP collector endpoint; tracing is disabled when empty
func (e EnvVars) GetOTLPEndpoint() string {
	return e.OTLPEndpoint
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
