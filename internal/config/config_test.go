// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "BURNERMAIL_ADMIN_TOKEN", "test-admin-token-32-bytes-long!!!")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/burnermail.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/burnermail.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.MailDomain != "burnermail.local" {
		t.Errorf("MailDomain = %q, want %q", cfg.MailDomain, "burnermail.local")
	}
	if cfg.MailboxTTL != 3600 {
		t.Errorf("MailboxTTL = %d, want 3600", cfg.MailboxTTL)
	}
	if cfg.RateLimitRPS != 10 || cfg.RateLimitBurst != 30 {
		t.Errorf("rate limit = %d/%d, want 10/30", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if got := cfg.BlockedCIDRs(); got != nil {
		t.Errorf("BlockedCIDRs() = %v, want nil", got)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	token := "custom-admin-token-32-bytes-long!"
	setEnv(t, "BURNERMAIL_ADMIN_TOKEN", token)
	setEnv(t, "BURNERMAIL_DB_PATH", "/custom/path.db")
	setEnv(t, "BURNERMAIL_SERVER_HOST", "0.0.0.0")
	setEnv(t, "BURNERMAIL_SERVER_PORT", "3000")
	setEnv(t, "BURNERMAIL_ENV", "production")
	setEnv(t, "BURNERMAIL_MAIL_DOMAIN", "mail.example.com")
	setEnv(t, "BURNERMAIL_BLOCKED_CIDRS", "10.0.0.0/8, 192.168.0.0/16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.AdminToken != token {
		t.Errorf("AdminToken = %q, want %q", cfg.AdminToken, token)
	}
	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/custom/path.db")
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "0.0.0.0:3000")
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true in production")
	}
	if cfg.MailDomain != "mail.example.com" {
		t.Errorf("MailDomain = %q, want %q", cfg.MailDomain, "mail.example.com")
	}

	cidrs := cfg.BlockedCIDRs()
	if len(cidrs) != 2 || cidrs[0] != "10.0.0.0/8" || cidrs[1] != "192.168.0.0/16" {
		t.Errorf("BlockedCIDRs() = %v", cidrs)
	}
}

func TestLoad_MissingAdminToken(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() succeeded without BURNERMAIL_ADMIN_TOKEN")
	}
}

func TestLoad_ShortAdminToken(t *testing.T) {
	os.Clearenv()
	setEnv(t, "BURNERMAIL_ADMIN_TOKEN", "too-short")

	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted a short admin token")
	}
}

func TestLoad_KnownWeakAdminToken(t *testing.T) {
	os.Clearenv()
	setEnv(t, "BURNERMAIL_ADMIN_TOKEN", "change-me-to-32-byte-secret-key!")

	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted a known default token")
	}
}

func TestUseRedisCache(t *testing.T) {
	cfg := Config{}
	if cfg.UseRedisCache() {
		t.Error("UseRedisCache() = true with no URL")
	}
	cfg.RedisURL = "redis://localhost:6379/0"
	if !cfg.UseRedisCache() {
		t.Error("UseRedisCache() = false with URL set")
	}
}
