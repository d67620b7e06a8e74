package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	StorePath     string
	KeyPath       string
	KeyPassphrase string

	DetectorURL       string
	DetectorTimeout   time.Duration
	MaxImageDimension int

	MatchThreshold float64
	PasswordCost   int

	// TokenSecret signs authorization grants. Empty means a random secret
	// per process.
	TokenSecret string
	TokenTTL    time.Duration

	LogLevel    string
	MetricsAddr string

	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
}

func (c *Config) LoadDefaults() {
	c.StorePath = "user_identification.db"
	c.KeyPath = "db_key.key"
	c.DetectorURL = "http://127.0.0.1:8000"
	c.DetectorTimeout = 30 * time.Second
	c.MaxImageDimension = 800
	c.MatchThreshold = 11.0
	c.PasswordCost = bcrypt.DefaultCost
	c.TokenTTL = 5 * time.Minute
	c.LogLevel = "info"
	c.S3Bucket = "facegate"
	c.S3Region = "us-east-1"
}

// SaltPath is where the argon2 salt is kept in passphrase mode.
func (c *Config) SaltPath() string {
	return c.StorePath + ".salt"
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.StorePath == "" {
		errs = append(errs, errors.New("store path is empty"))
	}
	if c.KeyPath == "" && c.KeyPassphrase == "" {
		errs = append(errs, errors.New("key path is empty"))
	}
	if !(c.MatchThreshold > 0) {
		errs = append(errs, fmt.Errorf("match threshold must be positive, got %v", c.MatchThreshold))
	}
	if c.MaxImageDimension < 0 {
		errs = append(errs, fmt.Errorf("max image dimension must not be negative, got %d", c.MaxImageDimension))
	}
	if c.PasswordCost != 0 && (c.PasswordCost < bcrypt.MinCost || c.PasswordCost > bcrypt.MaxCost) {
		errs = append(errs, fmt.Errorf("password cost must be within [%d, %d], got %d", bcrypt.MinCost, bcrypt.MaxCost, c.PasswordCost))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token ttl must be positive, got %v", c.TokenTTL))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config from defaults, the JSON file, the process
// environment and flags, in that order.
func LoadConfig(ctx context.Context) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	if err := parseEnv(ctx, cfg, envconfig.OsLookuper()); err != nil {
		return nil, err
	}
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
