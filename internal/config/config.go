// Package config holds the postbot configuration: the shared core sections
// plus database, access lists, channel, review, sessions, archive and bot.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/postbot/core/config"
	coredatabase "github.com/m3rciful/postbot/core/database"
	"github.com/m3rciful/postbot/core/telegram/state"
)

// Session backends.
const (
	SessionsMemory = "memory"
	SessionsRedis  = "redis"
)

// AccessConfig lists who may use the bot. Entries are "@name", "name" or a numeric id.
type AccessConfig struct {
	Operators []string `yaml:"operators" envconfig:"ACCESS_OPERATORS"`
	Reviewers []string `yaml:"reviewers" envconfig:"ACCESS_REVIEWERS"`
}

// ChannelConfig selects the channel approved posts are published to; empty disables publishing.
type ChannelConfig struct {
	Username string `yaml:"username" envconfig:"CHANNEL_USERNAME"`
}

// ReviewConfig tunes reviewer notifications; a zero chat id disables them.
type ReviewConfig struct {
	NotifyChatID int64 `yaml:"notify_chat_id" envconfig:"REVIEW_NOTIFY_CHAT_ID"`
}

// SessionsConfig selects where conversation sessions live.
type SessionsConfig struct {
	Backend       string        `yaml:"backend" envconfig:"SESSIONS_BACKEND"`
	TTL           time.Duration `yaml:"ttl" envconfig:"SESSIONS_TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	RedisURL      string        `yaml:"redis_url" envconfig:"REDIS_URL"`
}

// ArchiveConfig enables mirroring of post photos to S3-compatible storage.
type ArchiveConfig struct {
	Enabled         bool   `yaml:"enabled" envconfig:"ARCHIVE_ENABLED"`
	Endpoint        string `yaml:"endpoint" envconfig:"ARCHIVE_ENDPOINT"`
	Region          string `yaml:"region" envconfig:"ARCHIVE_REGION"`
	Bucket          string `yaml:"bucket" envconfig:"ARCHIVE_BUCKET"`
	AccessKeyID     string `yaml:"access_key_id" envconfig:"ARCHIVE_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" envconfig:"ARCHIVE_SECRET_ACCESS_KEY"`
	Prefix          string `yaml:"prefix"`
	PathStyle       bool   `yaml:"path_style"`
}

// BotConfig holds presentation settings.
type BotConfig struct {
	// Lang picks the message catalog: "en" or "ar".
	Lang string `yaml:"lang" envconfig:"BOT_LANG"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Access   AccessConfig        `yaml:"access"`
	Channel  ChannelConfig       `yaml:"channel"`
	Review   ReviewConfig        `yaml:"review"`
	Sessions SessionsConfig      `yaml:"sessions"`
	Archive  ArchiveConfig       `yaml:"archive"`
	Bot      BotConfig           `yaml:"bot"`
}

// CoreConfig exposes the embedded core sections.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads the YAML file at path, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills in defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}

	c.Access.Operators = trimList(c.Access.Operators)
	c.Access.Reviewers = trimList(c.Access.Reviewers)
	if len(c.Access.Operators)+len(c.Access.Reviewers) == 0 {
		return fmt.Errorf("access.operators or access.reviewers must list at least one user")
	}

	c.Channel.Username = strings.TrimSpace(c.Channel.Username)

	s := &c.Sessions
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	if s.Backend == "" {
		s.Backend = SessionsMemory
	}
	switch s.Backend {
	case SessionsMemory:
	case SessionsRedis:
		if strings.TrimSpace(s.RedisURL) == "" {
			return fmt.Errorf("sessions.redis_url is required when sessions.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid sessions.backend %q; allowed: memory, redis", s.Backend)
	}
	if s.TTL < 0 || s.SweepInterval < 0 {
		return fmt.Errorf("sessions.ttl and sessions.sweep_interval must be >= 0")
	}
	if s.TTL == 0 {
		s.TTL = state.DefaultTTL
	}
	if s.SweepInterval == 0 {
		s.SweepInterval = time.Minute
	}

	if a := &c.Archive; a.Enabled {
		if a.Bucket == "" || a.Region == "" || a.AccessKeyID == "" || a.SecretAccessKey == "" {
			return fmt.Errorf("archive.bucket, region, access_key_id and secret_access_key are required when archive.enabled")
		}
		if a.Prefix == "" {
			a.Prefix = "posts"
		}
	}

	c.Bot.Lang = strings.ToLower(strings.TrimSpace(c.Bot.Lang))
	switch c.Bot.Lang {
	case "":
		c.Bot.Lang = "en"
	case "en", "ar":
	default:
		return fmt.Errorf("invalid bot.lang %q; allowed: en, ar", c.Bot.Lang)
	}
	return nil
}

func trimList(in []string) []string {
	out := in[:0]
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
