package config

type StoreType string

const (
	StoreFile   StoreType = "file"
	StoreSQLite StoreType = "sqlite"
	StoreRedis  StoreType = "redis"
	StoreMemory StoreType = "memory"
)

type StorageConfig interface {
	GetStoreType() StoreType
	GetStorePath() string
	GetStoreKey() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
}

type Storage struct {
	Type          StoreType `env:"BIZCARD_STORE" envDefault:"file"`
	Path          string    `env:"BIZCARD_STORE_PATH" envDefault:"./data/session.yaml"`
	Key           string    `env:"BIZCARD_STORE_KEY"`
	RedisAddr     string    `env:"BIZCARD_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string    `env:"BIZCARD_REDIS_PASSWORD"`
	RedisDB       int       `env:"BIZCARD_REDIS_DB" envDefault:"0"`
	RedisPrefix   string    `env:"BIZCARD_REDIS_PREFIX" envDefault:"bizcard:"`
}

var _ StorageConfig = Storage{}

func (s Storage) GetStoreType() StoreType {
	return s.Type
}

func (s Storage) GetStorePath() string {
	return s.Path
}

// GetStoreKey returns the passphrase used to encrypt the file store; empty means plaintext
func (s Storage) GetStoreKey() string {
	return s.Key
}

func (s Storage) GetRedisAddr() string {
	return s.RedisAddr
}

func (s Storage) GetRedisPassword() string {
	return s.RedisPassword
}

func (s Storage) GetRedisDB() int {
	return s.RedisDB
}

func (s Storage) GetRedisPrefix() string {
	return s.RedisPrefix
}
