package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", " ")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	for _, k := range []string{"ACCESS_TOKEN_TTL", "DATABASE_URL", "DB_MAX_CONNS", "DB_AUTO_MIGRATE", "NATS_URL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "BOOTSTRAP_ADMIN_USERNAME"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(cfg.JWTSecret) != "s3cret" {
		t.Fatalf("unexpected secret %q", cfg.JWTSecret)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected 15m ttl, got %s", cfg.AccessTokenTTL)
	}
	if cfg.DBMaxConns != 10 || cfg.RateLimitRPS != 10 || cfg.RateLimitBurst != 20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AutoMigrate || cfg.DatabaseURL != "" || cfg.NATSURL != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL", "1h")
	t.Setenv("DB_MAX_CONNS", "4")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("RATE_LIMIT_RPS", "0")
	t.Setenv("RATE_LIMIT_BURST", "bogus")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AccessTokenTTL != time.Hour || cfg.DBMaxConns != 4 || !cfg.AutoMigrate {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.RateLimitRPS != 0 {
		t.Fatalf("expected rate limiting disabled, got %v", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst != 20 {
		t.Fatalf("expected fallback burst, got %d", cfg.RateLimitBurst)
	}
}
