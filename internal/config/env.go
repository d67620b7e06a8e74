package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const envPrefix = "FACEGATE_"

type envConfig struct {
	StorePath         string        `env:"STORE_PATH"`
	KeyPath           string        `env:"KEY_PATH"`
	KeyPassphrase     string        `env:"KEY_PASSPHRASE"`
	DetectorURL       string        `env:"DETECTOR_URL"`
	DetectorTimeout   time.Duration `env:"DETECTOR_TIMEOUT"`
	MaxImageDimension int           `env:"MAX_IMAGE_DIMENSION"`
	MatchThreshold    float64       `env:"MATCH_THRESHOLD"`
	PasswordCost      int           `env:"PASSWORD_COST"`
	TokenSecret       string        `env:"TOKEN_SECRET"`
	TokenTTL          time.Duration `env:"TOKEN_TTL"`
	LogLevel          string        `env:"LOG_LEVEL"`
	MetricsAddr       string        `env:"METRICS_ADDR"`
	S3Bucket          string        `env:"S3_BUCKET"`
	S3Region          string        `env:"S3_REGION"`
	S3BaseEndpoint    string        `env:"S3_BASE_ENDPOINT"`
	S3AccessKey       string        `env:"S3_ACCESS_KEY"`
	S3SecretKey       string        `env:"S3_SECRET_KEY"`
}

// parseEnv overlays cfg with FACEGATE_* variables found by lookuper.
// Unset variables leave the current value alone.
func parseEnv(ctx context.Context, cfg *Config, lookuper envconfig.Lookuper) error {
	ec := envConfig{
		StorePath:         cfg.StorePath,
		KeyPath:           cfg.KeyPath,
		KeyPassphrase:     cfg.KeyPassphrase,
		DetectorURL:       cfg.DetectorURL,
		DetectorTimeout:   cfg.DetectorTimeout,
		MaxImageDimension: cfg.MaxImageDimension,
		MatchThreshold:    cfg.MatchThreshold,
		PasswordCost:      cfg.PasswordCost,
		TokenSecret:       cfg.TokenSecret,
		TokenTTL:          cfg.TokenTTL,
		LogLevel:          cfg.LogLevel,
		MetricsAddr:       cfg.MetricsAddr,
		S3Bucket:          cfg.S3Bucket,
		S3Region:          cfg.S3Region,
		S3BaseEndpoint:    cfg.S3BaseEndpoint,
		S3AccessKey:       cfg.S3AccessKey,
		S3SecretKey:       cfg.S3SecretKey,
	}

	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           &ec,
		Lookuper:         envconfig.PrefixLookuper(envPrefix, lookuper),
		DefaultOverwrite: true,
	})
	if err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	cfg.StorePath = ec.StorePath
	cfg.KeyPath = ec.KeyPath
	cfg.KeyPassphrase = ec.KeyPassphrase
	cfg.DetectorURL = ec.DetectorURL
	cfg.DetectorTimeout = ec.DetectorTimeout
	cfg.MaxImageDimension = ec.MaxImageDimension
	cfg.MatchThreshold = ec.MatchThreshold
	cfg.PasswordCost = ec.PasswordCost
	cfg.TokenSecret = ec.TokenSecret
	cfg.TokenTTL = ec.TokenTTL
	cfg.LogLevel = ec.LogLevel
	cfg.MetricsAddr = ec.MetricsAddr
	cfg.S3Bucket = ec.S3Bucket
	cfg.S3Region = ec.S3Region
	cfg.S3BaseEndpoint = ec.S3BaseEndpoint
	cfg.S3AccessKey = ec.S3AccessKey
	cfg.S3SecretKey = ec.S3SecretKey
	return nil
}
