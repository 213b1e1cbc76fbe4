package config

import (
	"fmt"
	"time"
)

type DevServerConfig interface {
	GetPort() string
	GetJWTSecret() string
	GetIssuer() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
}

type DevServer struct {
	Port               string        `env:"PORT" envDefault:"3000"`
	JWTSecret          string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	Issuer             string        `env:"JWT_ISSUER" envDefault:"bizcard-devserver"`
	AccessTokenExpiry  time.Duration `env:"ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	RefreshTokenExpiry time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"168h"`
}

var _ DevServerConfig = DevServer{}

func (d DevServer) GetPort() string {
	port := d.Port
	if port == "" {
		port = "3000"
	}
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (d DevServer) GetJWTSecret() string {
	return d.JWTSecret
}

func (d DevServer) GetIssuer() string {
	return d.Issuer
}

func (d DevServer) GetAccessTokenExpiry() time.Duration {
	return d.AccessTokenExpiry
}

func (d DevServer) GetRefreshTokenExpiry() time.Duration {
	return d.RefreshTokenExpiry
}

func (DevServer) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}
