package database

import (
	"fmt"
	"net/url"
	"strings"
)

// Config holds database connection settings.
// URL, when set, wins over the discrete fields.
type Config struct {
	URL            string `yaml:"url" envconfig:"DATABASE_URL"`
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	MigrationsDir  string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// DSN returns a postgres:// connection URL usable by both lib/pq and golang-migrate.
func (c Config) DSN() string {
	if u := strings.TrimSpace(c.URL); u != "" {
		return u
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslmode),
	}
	return u.String()
}

// Target returns host and database name for logs without exposing credentials.
func (c Config) Target() (host, name string) {
	if strings.TrimSpace(c.URL) == "" {
		return c.Host + ":" + c.Port, c.Name
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return "invalid", ""
	}
	return u.Host, strings.TrimPrefix(u.Path, "/")
}

// Normalize validates required fields and applies defaults.
func (c *Config) Normalize() error {
	if strings.TrimSpace(c.URL) == "" {
		if c.Host == "" || c.Name == "" || c.User == "" {
			return fmt.Errorf("database: url or host/name/user are required")
		}
		if c.Port == "" {
			c.Port = "5432"
		}
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 5
	}
	if c.MigrationsDir == "" {
		c.MigrationsDir = "migrations"
	}
	return nil
}
