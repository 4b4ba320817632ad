package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Business BusinessConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=order_exchange"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// BusinessConfig carries the marketplace parameters: the order lifetime
// window, the post-take quiet window, the flat take fee, the holder cap,
// and the sweep cadence.
type BusinessConfig struct {
	OrderLifetimeMinutes int           `env:"ORDER_LIFETIME_MINUTES,    default=60"`
	NoResponseWindow     time.Duration `env:"NO_RESPONSE_CLOSE_WINDOW,  default=15m"`
	TakeFee              int64         `env:"ORDER_TAKE_FEE,            default=2"`
	MaxHolders           int           `env:"MAX_HOLDERS_PER_ORDER,     default=3"`
	LockWait             time.Duration `env:"LOCK_WAIT,                 default=3s"`
	SweepInterval        time.Duration `env:"SWEEP_INTERVAL,            default=1m"`
	SweepBatchSize       int           `env:"SWEEP_BATCH_SIZE,          default=100"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
