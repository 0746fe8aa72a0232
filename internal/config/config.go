// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakTokens contains default/example admin tokens that must be rejected.
var knownWeakTokens = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_ADMIN_TOKEN",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"BURNERMAIL_DB_PATH" envDefault:"./data/burnermail.db"`
	AdminToken string `env:"BURNERMAIL_ADMIN_TOKEN,required"`
	ServerHost string `env:"BURNERMAIL_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"BURNERMAIL_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"BURNERMAIL_ENV" envDefault:"development"`
	LogLevel   string `env:"BURNERMAIL_LOG_LEVEL" envDefault:"info"`

	// Mailbox configuration
	MailDomain     string `env:"BURNERMAIL_MAIL_DOMAIN" envDefault:"burnermail.local"` // Domain new addresses are minted under
	MailboxTTL     int    `env:"BURNERMAIL_MAILBOX_TTL" envDefault:"3600"`             // Mailbox lifetime in seconds
	PurgeSchedule  string `env:"BURNERMAIL_PURGE_SCHEDULE" envDefault:"*/10 * * * *"`  // Cron schedule for expired-mailbox purge
	WebhookSecret  string `env:"BURNERMAIL_WEBHOOK_SECRET"`                            // Shared secret for the inbound delivery webhook
	BlockedNetwork string `env:"BURNERMAIL_BLOCKED_CIDRS"`                             // Comma-separated CIDRs denied at the edge

	// Cache configuration
	RedisURL    string `env:"BURNERMAIL_REDIS_URL"`                            // Optional Redis URL for distributed caching
	CachePrefix string `env:"BURNERMAIL_CACHE_PREFIX" envDefault:"burnermail:"` // Redis key prefix
	CacheTTL    int    `env:"BURNERMAIL_CACHE_TTL" envDefault:"300"`           // Default cache TTL in seconds

	// Rate limiting
	RateLimitRPS   int `env:"BURNERMAIL_RATE_LIMIT_RPS" envDefault:"10"`   // Sustained requests per second per client IP
	RateLimitBurst int `env:"BURNERMAIL_RATE_LIMIT_BURST" envDefault:"30"` // Burst allowance per client IP
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// BlockedCIDRs returns the configured denied networks as a slice.
func (c Config) BlockedCIDRs() []string {
	if c.BlockedNetwork == "" {
		return nil
	}
	parts := strings.Split(c.BlockedNetwork, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MinAdminTokenLength is the minimum required length for the admin token.
const MinAdminTokenLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.AdminToken) < MinAdminTokenLength {
		return nil, fmt.Errorf("BURNERMAIL_ADMIN_TOKEN must be at least %d bytes long, got %d bytes; "+
			"generate a secure token with: openssl rand -base64 32",
			MinAdminTokenLength, len(cfg.AdminToken))
	}

	for _, weak := range knownWeakTokens {
		if cfg.AdminToken == weak {
			return nil, fmt.Errorf("BURNERMAIL_ADMIN_TOKEN is a known default value and must not be used; " +
				"generate a secure token with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.AdminToken) {
		slog.Warn("BURNERMAIL_ADMIN_TOKEN has low character diversity; " +
			"consider generating a random token with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
