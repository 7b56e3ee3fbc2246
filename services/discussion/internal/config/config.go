package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	JWTSecret      []byte
	AccessTokenTTL time.Duration

	DatabaseURL string
	DBMaxConns  int32
	AutoMigrate bool

	NATSURL string

	RateLimitRPS   float64
	RateLimitBurst int

	BootstrapAdminUsername string
}

func Load() (Config, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return Config{
		JWTSecret:              []byte(secret),
		AccessTokenTTL:         parseDurationWithDefault(os.Getenv("ACCESS_TOKEN_TTL"), 15*time.Minute),
		DatabaseURL:            strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:             int32(parseIntWithDefault(os.Getenv("DB_MAX_CONNS"), 10)),
		AutoMigrate:            parseBool(os.Getenv("DB_AUTO_MIGRATE")),
		NATSURL:                strings.TrimSpace(os.Getenv("NATS_URL")),
		RateLimitRPS:           parseFloatWithDefault(os.Getenv("RATE_LIMIT_RPS"), 10),
		RateLimitBurst:         parseIntWithDefault(os.Getenv("RATE_LIMIT_BURST"), 20),
		BootstrapAdminUsername: strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_USERNAME")),
	}, nil
}

func parseDurationWithDefault(v string, def time.Duration) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func parseIntWithDefault(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseFloatWithDefault(v string, def float64) float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}

func parseBool(v string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(v))
	return b
}
