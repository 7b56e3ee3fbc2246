package config

import (
	"os"
	"strings"
)

type HTTPConfig struct {
	Addr               string
	CORSAllowedOrigins string
}

type GRPCConfig struct {
	// Addr is empty when the gRPC health server is disabled.
	Addr string
}

type AppConfig struct {
	ServiceName string
	LogLevel    string
	Env         string
	HTTP        HTTPConfig
	GRPC        GRPCConfig
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: strings.TrimSpace(os.Getenv("SERVICE_NAME")),
		LogLevel:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		Env:         strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV"))),
		HTTP: HTTPConfig{
			Addr:               strings.TrimSpace(os.Getenv("HTTP_ADDR")),
			CORSAllowedOrigins: strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "discussion"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	grpcAddr, set := os.LookupEnv("GRPC_ADDR")
	if !set {
		grpcAddr = ":9090"
	}
	cfg.GRPC.Addr = strings.TrimSpace(grpcAddr)
	return cfg, nil
}

func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}
