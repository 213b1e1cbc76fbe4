package config

import "time"

type ClientConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
	GetRefreshTimeout() time.Duration
	GetNotificationInterval() time.Duration
	GetDefaultRoute() string
}

type Client struct {
	APIBaseURL           string        `env:"BIZCARD_API_URL" envDefault:"http://localhost:3000/api"`
	RequestTimeout       time.Duration `env:"BIZCARD_TIMEOUT" envDefault:"5s"`
	RefreshTimeout       time.Duration `env:"BIZCARD_REFRESH_TIMEOUT" envDefault:"10s"`
	NotificationInterval time.Duration `env:"BIZCARD_NOTIFY_INTERVAL" envDefault:"60s"`
	DefaultRoute         string        `env:"BIZCARD_DEFAULT_ROUTE" envDefault:"/feed"`
}

var _ ClientConfig = Client{}

func (c Client) GetAPIBaseURL() string {
	return c.APIBaseURL
}

func (c Client) GetRequestTimeout() time.Duration {
	return c.RequestTimeout
}

// GetRefreshTimeout bounds a single refresh call. It is independent of the caller's
// context so that a refresh shared by several requests is never cut short by one of them.
func (c Client) GetRefreshTimeout() time.Duration {
	return c.RefreshTimeout
}

func (c Client) GetNotificationInterval() time.Duration {
	return c.NotificationInterval
}

func (c Client) GetDefaultRoute() string {
	return c.DefaultRoute
}
