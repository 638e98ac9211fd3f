package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
)

type Config struct {
	Primary       Primary             `koanf:"primary"`
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Redis         RedisConfig         `koanf:"redis"`
	Gateway       GatewayConfig       `koanf:"gateway"`
	Webhook       WebhookConfig       `koanf:"webhook"`
	Collaborators CollaboratorsConfig `koanf:"collaborators"`
	Intent        IntentConfig        `koanf:"intent"`
	Retry         RetryConfig         `koanf:"retry"`
	Worker        WorkerConfig        `koanf:"worker"`
	Logger        LoggerConfig        `koanf:"logger"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

type RedisConfig struct {
	Addr     string        `koanf:"addr" validate:"required"`
	DB       int           `koanf:"db"`
	Password string        `koanf:"password"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// GatewayConfig configures the payment provider client. EncryptionKey is the
// provider-issued key for the mandated card payload block cipher.
type GatewayConfig struct {
	BaseURL       string        `koanf:"base_url" validate:"required"`
	SecretKey     string        `koanf:"secret_key" validate:"required"`
	EncryptionKey string        `koanf:"encryption_key" validate:"required"`
	ConnTimeout   time.Duration `koanf:"conn_timeout" validate:"required"`
}

type WebhookConfig struct {
	// SecretHash is the shared secret the provider echoes in the signature
	// header of every callback.
	SecretHash string `koanf:"secret_hash" validate:"required"`
}

type CollaboratorsConfig struct {
	CatalogBaseURL  string        `koanf:"catalog_base_url" validate:"required"`
	IdentityBaseURL string        `koanf:"identity_base_url" validate:"required"`
	CartBaseURL     string        `koanf:"cart_base_url" validate:"required"`
	ConnTimeout     time.Duration `koanf:"conn_timeout" validate:"required"`
}

type IntentConfig struct {
	TTL time.Duration `koanf:"ttl" validate:"required"`
}

type RetryConfig struct {
	BaseDelay  int32 `koanf:"base_delay"`
	MaxRetries int32 `koanf:"max_retries"`
}

type WorkerConfig struct {
	Interval time.Duration `koanf:"interval" validate:"required"`
}

type LoggerConfig struct {
	Level string `koanf:"level"`
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	err := k.Load(env.Provider("SUYA_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "SUYA_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}
