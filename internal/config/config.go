package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	RedisURL    string
	NATSURL     string
	JWTSecret   string

	// FrontendBaseURL is the origin check-in deep links point at.
	FrontendBaseURL string

	// StorageDriver selects where check-in evidence images go: "local" or
	// "cloudinary".
	StorageDriver       string
	UploadsDir          string
	UploadsPublicPrefix string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	StatsCacheTTL time.Duration

	// SeedEnabled gates the demo-roster seeding endpoints; SeedToken is the
	// shared secret they require.
	SeedEnabled bool
	SeedToken   string
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
	v.SetEnvPrefix("OPS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Sekolah Ops API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("frontend.base_url", "http://localhost:3000")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("uploads.dir", "./uploads")
	v.SetDefault("uploads.public_prefix", "/uploads")
	v.SetDefault("cloudinary.folder", "ops/attendance")
	v.SetDefault("stats.cache_ttl", "1m")
	v.SetDefault("seed.enabled", false)

	ttlString := v.GetString("stats.cache_ttl")
	if ttlString == "" {
		ttlString = "1m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid stats cache ttl: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		JWTSecret:           v.GetString("jwt.secret"),
		FrontendBaseURL:     v.GetString("frontend.base_url"),
		StorageDriver:       strings.ToLower(v.GetString("storage.driver")),
		UploadsDir:          v.GetString("uploads.dir"),
		UploadsPublicPrefix: v.GetString("uploads.public_prefix"),
		CloudinaryCloudName: v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:    v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret: v.GetString("cloudinary.api_secret"),
		CloudinaryFolder:    v.GetString("cloudinary.folder"),
		StatsCacheTTL:       ttl,
		SeedEnabled:         v.GetBool("seed.enabled"),
		SeedToken:           v.GetString("seed.token"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	return cfg, nil
}
