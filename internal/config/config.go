package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the plugin service.
type Config struct {
	AppName               string
	AppEnv                string
	AppPort               string
	DatabaseURL           string
	RedisURL              string
	NATSURL               string
	JWTSecret             string
	DataStoreSecret       string
	QueuePrefix           string
	QueueScanLimit        int
	ReviewCooldown        time.Duration
	WebhookTimeout        time.Duration
	AllowInsecureWebhooks bool
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CFP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "CFP Plugins")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("queue.prefix", "cfp:jobs")
	v.SetDefault("queue.scan_limit", 100)
	v.SetDefault("review.cooldown", "30m")
	v.SetDefault("webhook.timeout", "10s")
	v.SetDefault("webhook.allow_insecure", false)

	cooldown, err := time.ParseDuration(v.GetString("review.cooldown"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid review cooldown: %w", err)
	}

	webhookTimeout, err := time.ParseDuration(v.GetString("webhook.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid webhook timeout: %w", err)
	}

	cfg := Config{
		AppName:               v.GetString("app.name"),
		AppEnv:                v.GetString("app.env"),
		AppPort:               v.GetString("app.port"),
		DatabaseURL:           v.GetString("database.url"),
		RedisURL:              v.GetString("redis.url"),
		NATSURL:               v.GetString("nats.url"),
		JWTSecret:             v.GetString("jwt.secret"),
		DataStoreSecret:       v.GetString("datastore.secret"),
		QueuePrefix:           v.GetString("queue.prefix"),
		QueueScanLimit:        v.GetInt("queue.scan_limit"),
		ReviewCooldown:        cooldown,
		WebhookTimeout:        webhookTimeout,
		AllowInsecureWebhooks: v.GetBool("webhook.allow_insecure"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.DataStoreSecret == "" {
		return Config{}, fmt.Errorf("datastore secret must be provided")
	}

	if cfg.QueueScanLimit <= 0 {
		cfg.QueueScanLimit = 100
	}

	return cfg, nil
}
