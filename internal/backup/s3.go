// Package backup ships encrypted snapshots of the credential store to
// S3-compatible object storage. Only the sealed file ever leaves the host;
// the key file is never uploaded.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/facegate/internal/logging"
	"github.com/dmitrijs2005/facegate/internal/vault"
	"github.com/google/uuid"
)

var (
	ErrNotEncrypted  = errors.New("store file is not encrypted")
	ErrNotConfigured = errors.New("backup bucket not configured")
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

type Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

type Uploader struct {
	cfg    Config
	vault  *vault.Vault
	logger logging.Logger
	now    func() time.Time
}

func NewUploader(cfg Config, v *vault.Vault, logger logging.Logger) *Uploader {
	return &Uploader{cfg: cfg, vault: v, logger: logger, now: time.Now}
}

// ObjectKey returns a fresh date-partitioned key for a snapshot taken at t.
func ObjectKey(t time.Time) string {
	return fmt.Sprintf("snapshots/%04d/%02d/%02d/%s", t.Year(), t.Month(), t.Day(), uuid.New())
}

func (u *Uploader) client(ctx context.Context) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(u.cfg.Region)}
	if u.cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			u.cfg.AccessKey,
			u.cfg.SecretKey,
			"",
		)))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if u.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(u.cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Upload stores the sealed store file under a new key and returns it.
// Plaintext files are refused.
func (u *Uploader) Upload(ctx context.Context) (string, error) {
	if u.cfg.Bucket == "" {
		return "", ErrNotConfigured
	}

	data, encrypted, err := u.vault.Snapshot()
	if err != nil {
		return "", err
	}
	if !encrypted {
		return "", ErrNotEncrypted
	}

	client, err := u.client(ctx)
	if err != nil {
		return "", err
	}

	key := ObjectKey(u.now())
	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	u.logger.Info(ctx, "store snapshot uploaded", "bucket", u.cfg.Bucket, "key", key, "bytes", len(data))
	return key, nil
}
