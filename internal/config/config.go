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
	AppName            string
	AppEnv             string
	AppPort            string
	DatabaseURL        string
	RedisURL           string
	NATSURL            string
	JWTSecret          string
	TokenTTL           time.Duration
	MaxMembers         int
	MaxGroups          int
	CourseScoped       bool
	AuditRejected      bool
	StudentEmailDomain string
	RosterCacheTTL     time.Duration
	RegisterRateLimit  int
	SeedEnabled        bool
	SeedToken          string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and an optional
// .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GROUPER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Grouper API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("token.ttl", "24h")
	v.SetDefault("group.max_members", 10)
	v.SetDefault("group.max_groups", 0)
	v.SetDefault("group.course_scoped", false)
	v.SetDefault("group.cache_ttl", "30s")
	v.SetDefault("audit.rejected", false)
	v.SetDefault("auth.student_email_domain", "students.ouk.ac.ke")
	v.SetDefault("register.rate_limit", 5)
	v.SetDefault("seed.enabled", false)

	tokenTTL, err := time.ParseDuration(v.GetString("token.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid token ttl: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("group.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid roster cache ttl: %w", err)
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		JWTSecret:          v.GetString("jwt.secret"),
		TokenTTL:           tokenTTL,
		MaxMembers:         v.GetInt("group.max_members"),
		MaxGroups:          v.GetInt("group.max_groups"),
		CourseScoped:       v.GetBool("group.course_scoped"),
		AuditRejected:      v.GetBool("audit.rejected"),
		StudentEmailDomain: v.GetString("auth.student_email_domain"),
		RosterCacheTTL:     cacheTTL,
		RegisterRateLimit:  v.GetInt("register.rate_limit"),
		SeedEnabled:        v.GetBool("seed.enabled"),
		SeedToken:          v.GetString("seed.token"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.MaxMembers <= 0 {
		cfg.MaxMembers = 10
	}
	if cfg.MaxGroups < 0 {
		cfg.MaxGroups = 0
	}
	if cfg.RegisterRateLimit <= 0 {
		cfg.RegisterRateLimit = 5
	}

	return cfg, nil
}
