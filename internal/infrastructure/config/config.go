package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`

	// Credentials for the built-in admin seeded at startup.
	AdminEmail    string `env:"ADMIN_EMAIL,    default=admin@library.local"`
	AdminPassword string `env:"ADMIN_PASSWORD, default=change-me"`

	Loans LoanConfig
	Mongo MongoConfig
	Redis RedisConfig
}

type LoanConfig struct {
	PeriodDays    int           `env:"LOAN_PERIOD_DAYS,       default=14"`
	MaxActive     int           `env:"MAX_ACTIVE_LOANS,       default=5"`
	LateFeePerDay float64       `env:"LATE_FEE_PER_DAY,       default=0.50"`
	SweepInterval time.Duration `env:"OVERDUE_SWEEP_INTERVAL, default=24h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=library"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
