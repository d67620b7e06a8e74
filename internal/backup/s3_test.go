package backup

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/facegate/internal/common"
	"github.com/dmitrijs2005/facegate/internal/cryptox"
	"github.com/dmitrijs2005/facegate/internal/logging"
	"github.com/dmitrijs2005/facegate/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCfg = Config{
	Bucket:       "facegate",
	Region:       "us-east-1",
	BaseEndpoint: "http://127.0.0.1:9000",
	AccessKey:    "minioadmin",
	SecretKey:    "minioadmin",
}

func newSealedVault(t *testing.T) *vault.Vault {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.db")
	require.NoError(t, os.WriteFile(path, append([]byte{}, vault.PlaintextMagic...), 0o600))
	v := vault.New(path, common.GenerateRandByteArray(cryptox.KeySize), logging.Discard())
	require.NoError(t, v.Lock(context.Background()))
	return v
}

func stubAWS(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	origPut := putObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
		putObject = origPut
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		assert.NotNil(t, lo.Credentials)
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		require.NotNil(t, opts.BaseEndpoint)
		assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
		assert.True(t, opts.UsePathStyle)
		return &s3.Client{}
	}
}

func TestObjectKey(t *testing.T) {
	k := ObjectKey(time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC))
	assert.Regexp(t, regexp.MustCompile(`^snapshots/2026/03/07/[0-9a-f-]{36}$`), k)
	assert.NotEqual(t, k, ObjectKey(time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)))
}

func TestUpload_Success(t *testing.T) {
	stubAWS(t)
	v := newSealedVault(t)

	var gotBody []byte
	var gotIn *s3.PutObjectInput
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		gotIn = in
		b, err := io.ReadAll(in.Body)
		require.NoError(t, err)
		gotBody = b
		return &s3.PutObjectOutput{}, nil
	}

	u := NewUploader(testCfg, v, logging.Discard())
	u.now = func() time.Time { return time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC) }

	key, err := u.Upload(context.Background())
	require.NoError(t, err)
	assert.Contains(t, key, "snapshots/2026/10/16/")

	require.NotNil(t, gotIn)
	assert.Equal(t, "facegate", aws.ToString(gotIn.Bucket))
	assert.Equal(t, key, aws.ToString(gotIn.Key))

	onDisk, err := os.ReadFile(v.Path())
	require.NoError(t, err)
	assert.Equal(t, onDisk, gotBody)
	assert.True(t, cryptox.IsSealed(gotBody))
	assert.Equal(t, int64(len(onDisk)), aws.ToInt64(gotIn.ContentLength))
}

func TestUpload_RefusesPlaintext(t *testing.T) {
	stubAWS(t)
	called := false
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		called = true
		return &s3.PutObjectOutput{}, nil
	}

	v := newSealedVault(t)
	require.NoError(t, v.Unlock(context.Background()))

	_, err := NewUploader(testCfg, v, logging.Discard()).Upload(context.Background())
	assert.ErrorIs(t, err, ErrNotEncrypted)
	assert.False(t, called)
}

func TestUpload_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		_, err := NewUploader(Config{}, newSealedVault(t), logging.Discard()).Upload(context.Background())
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("missing file", func(t *testing.T) {
		v := vault.New(filepath.Join(t.TempDir(), "none.db"), common.GenerateRandByteArray(cryptox.KeySize), logging.Discard())
		_, err := NewUploader(testCfg, v, logging.Discard()).Upload(context.Background())
		assert.ErrorIs(t, err, common.ErrIOFault)
	})

	t.Run("aws config", func(t *testing.T) {
		stubAWS(t)
		loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
			return aws.Config{}, errors.New("no region")
		}
		_, err := NewUploader(testCfg, newSealedVault(t), logging.Discard()).Upload(context.Background())
		assert.ErrorContains(t, err, "no region")
	})

	t.Run("put fails", func(t *testing.T) {
		stubAWS(t)
		putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			return nil, errors.New("access denied")
		}
		_, err := NewUploader(testCfg, newSealedVault(t), logging.Discard()).Upload(context.Background())
		assert.ErrorContains(t, err, "access denied")
	})
}
