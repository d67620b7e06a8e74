package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/facegate/internal/flagx"
	"github.com/dmitrijs2005/facegate/internal/timex"
)

// JsonConfig mirrors Config for unmarshalling. Keys missing from the file
// keep the value Config already had.
type JsonConfig struct {
	StorePath         string         `json:"store_path"`
	KeyPath           string         `json:"key_path"`
	KeyPassphrase     string         `json:"key_passphrase"`
	DetectorURL       string         `json:"detector_url"`
	DetectorTimeout   timex.Duration `json:"detector_timeout"`
	MaxImageDimension int            `json:"max_image_dimension"`
	MatchThreshold    float64        `json:"match_threshold"`
	PasswordCost      int            `json:"password_cost"`
	TokenSecret       string         `json:"token_secret"`
	TokenTTL          timex.Duration `json:"token_ttl"`
	LogLevel          string         `json:"log_level"`
	MetricsAddr       string         `json:"metrics_addr"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	S3AccessKey       string         `json:"s3_access_key"`
	S3SecretKey       string         `json:"s3_secret_key"`
}

func toJson(c *Config) JsonConfig {
	return JsonConfig{
		StorePath:         c.StorePath,
		KeyPath:           c.KeyPath,
		KeyPassphrase:     c.KeyPassphrase,
		DetectorURL:       c.DetectorURL,
		DetectorTimeout:   timex.Duration{Duration: c.DetectorTimeout},
		MaxImageDimension: c.MaxImageDimension,
		MatchThreshold:    c.MatchThreshold,
		PasswordCost:      c.PasswordCost,
		TokenSecret:       c.TokenSecret,
		TokenTTL:          timex.Duration{Duration: c.TokenTTL},
		LogLevel:          c.LogLevel,
		MetricsAddr:       c.MetricsAddr,
		S3Bucket:          c.S3Bucket,
		S3Region:          c.S3Region,
		S3BaseEndpoint:    c.S3BaseEndpoint,
		S3AccessKey:       c.S3AccessKey,
		S3SecretKey:       c.S3SecretKey,
	}
}

func (jc JsonConfig) apply(c *Config) {
	c.StorePath = jc.StorePath
	c.KeyPath = jc.KeyPath
	c.KeyPassphrase = jc.KeyPassphrase
	c.DetectorURL = jc.DetectorURL
	c.DetectorTimeout = jc.DetectorTimeout.Duration
	c.MaxImageDimension = jc.MaxImageDimension
	c.MatchThreshold = jc.MatchThreshold
	c.PasswordCost = jc.PasswordCost
	c.TokenSecret = jc.TokenSecret
	c.TokenTTL = jc.TokenTTL.Duration
	c.LogLevel = jc.LogLevel
	c.MetricsAddr = jc.MetricsAddr
	c.S3Bucket = jc.S3Bucket
	c.S3Region = jc.S3Region
	c.S3BaseEndpoint = jc.S3BaseEndpoint
	c.S3AccessKey = jc.S3AccessKey
	c.S3SecretKey = jc.S3SecretKey
}

// parseJson overlays cfg with the file named by -c/-config, if any.
// It panics when the file cannot be read or parsed.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	jc := toJson(cfg)
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}
	jc.apply(cfg)
}
