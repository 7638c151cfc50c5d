// config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	App      AppConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Rabbit   RabbitConfig
	JWT      JWTConfig
	Password PasswordConfig
}

type AppConfig struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, EnvDevelopment)
}

type MongoConfig struct {
	URI            string        `envconfig:"MONGO_URI" default:"mongodb://host.docker.internal:27017"`
	DBName         string        `envconfig:"MONGO_DB_NAME" default:"ecommerce_db"`
	ConnectTimeout time.Duration `envconfig:"MONGO_CONNECT_TIMEOUT" default:"10s"`
}

// RedisConfig is optional: an empty URL disables the purchase-number sequence
// and the sales summary cache.
type RedisConfig struct {
	URL           string        `envconfig:"REDIS_URL"`
	SalesCacheTTL time.Duration `envconfig:"SALES_CACHE_TTL" default:"30s"`
}

type RabbitConfig struct {
	URL                   string `envconfig:"RABBIT_URL" default:"amqp://host.docker.internal"`
	OrderEventsExchange   string `envconfig:"RABBIT_ORDER_EVENTS_EXCHANGE" default:"order_events"`
	AccountEventsExchange string `envconfig:"RABBIT_ACCOUNT_EVENTS_EXCHANGE" default:"account_events"`
	PaymentExchange       string `envconfig:"RABBIT_PAYMENT_EXCHANGE" default:"payment_completed"`
	PaymentQueue          string `envconfig:"RABBIT_PAYMENT_QUEUE" default:"order_service_payments"`
	DisableConsumers      bool   `envconfig:"RABBIT_DISABLE_CONSUMERS" default:"false"`
}

type JWTConfig struct {
	Secret            string `envconfig:"JWT_SECRET"`
	Issuer            string `envconfig:"JWT_ISSUER" default:"ecommerce-backend"`
	ExpirationMinutes int    `envconfig:"JWT_EXPIRATION_MINUTES" default:"1440"`
}

func (j JWTConfig) TTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	BcryptCost int           `envconfig:"BCRYPT_COST" default:"10"`
	ResetTTL   time.Duration `envconfig:"RESET_PASSWORD_TTL" default:"1h"`
	ResetURL   string        `envconfig:"FRONTEND_RESET_PASSWORD_URL"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWT.ExpirationMinutes <= 0 {
		return errors.New("JWT_EXPIRATION_MINUTES must be positive")
	}
	if c.Password.ResetTTL <= 0 {
		return errors.New("RESET_PASSWORD_TTL must be positive")
	}
	return nil
}
