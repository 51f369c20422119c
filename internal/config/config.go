package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"supply_sandbox/internal/logger"
	"supply_sandbox/internal/server"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SANDBOX_DB_PATH.
const EnvPrefix = "SANDBOX"

type Config struct {
	HTTP     server.Config
	DBPath   string
	Log      logger.Config
	Auth     AuthConfig
	Sessions SessionsConfig
}

type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}

type SessionsConfig struct {
	TTL          time.Duration
	ReapInterval time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "sandbox.db")
	v.SetDefault("log.level", logger.InfoLevel)
	v.SetDefault("log.encoding", logger.ConsoleEncoding)
	v.SetDefault("auth.token_ttl", "12h")
	v.SetDefault("sessions.ttl", "2h")
	v.SetDefault("sessions.reap_interval", "1m")
	v.SetDefault("http.read_header_timeout", "10s")
	v.SetDefault("http.write_timeout", "10s")
	v.SetDefault("http.idle_timeout", "60s")
}

// Load reads config.yml from the given paths (first match wins) and applies
// SANDBOX_* environment overrides. A missing file is not an error.
func Load(paths ...string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		HTTP: server.Config{
			Port:              v.GetString("port"),
			ReadHeaderTimeout: v.GetDuration("http.read_header_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
		},
		DBPath: v.GetString("db.path"),
		Log: logger.Config{
			Level:    v.GetString("log.level"),
			Encoding: v.GetString("log.encoding"),
		},
		Auth: AuthConfig{
			SigningKey: v.GetString("auth.signing_key"),
			TokenTTL:   v.GetDuration("auth.token_ttl"),
		},
		Sessions: SessionsConfig{
			TTL:          v.GetDuration("sessions.ttl"),
			ReapInterval: v.GetDuration("sessions.reap_interval"),
		},
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Auth.SigningKey) == "" {
		return errors.New("auth.signing_key is required (or set SANDBOX_AUTH_SIGNING_KEY)")
	}
	if c.Sessions.ReapInterval <= 0 {
		return fmt.Errorf("sessions.reap_interval must be positive, got %s", c.Sessions.ReapInterval)
	}
	return nil
}
