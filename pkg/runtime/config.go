package runtime

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/caarlos0/env/v11"
)

// Config represents database and process configuration.
type Config struct {
	URL      string `env:"HOLONET_DATABASE_URL"`
	Host     string `env:"HOLONET_DB_HOST" envDefault:"localhost"`
	Port     int    `env:"HOLONET_DB_PORT" envDefault:"5432"`
	Database string `env:"HOLONET_DB_NAME" envDefault:"postgres"`
	User     string `env:"HOLONET_DB_USER" envDefault:"postgres"`
	Password string `env:"HOLONET_DB_PASSWORD"`
	SSLMode  string `env:"HOLONET_DB_SSLMODE" envDefault:"prefer"`
	MaxConns int32  `env:"HOLONET_DB_MAX_CONNS" envDefault:"10"`
	MinConns int32  `env:"HOLONET_DB_MIN_CONNS" envDefault:"0"`

	MigrationsDir string `env:"HOLONET_MIGRATIONS_DIR" envDefault:"./migrations"`
	LogLevel      string `env:"HOLONET_LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"HOLONET_LOG_FORMAT" envDefault:"text"`
}

// LoadConfig reads the configuration from HOLONET_* environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns a default database configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:          "localhost",
		Port:          5432,
		Database:      "postgres",
		User:          "postgres",
		SSLMode:       "prefer",
		MaxConns:      10,
		MigrationsDir: "./migrations",
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// ConnectionString returns URL when set, otherwise a postgres URL built from
// the individual fields.
func (c *Config) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}
	port := c.Port
	if port == 0 {
		port = 5432
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(port)),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else if c.User != "" {
		u.User = url.User(c.User)
	}

	return u.String()
}
