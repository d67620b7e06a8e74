package cryptox

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/facegate/internal/common"
	"github.com/dmitrijs2005/facegate/internal/filex"
	"github.com/dmitrijs2005/facegate/internal/logging"
)

const saltSize = 16

// LoadOrCreateKey reads the base64 key stored at path. When the file does
// not exist a fresh random key is generated and written with mode 0600.
func LoadOrCreateKey(ctx context.Context, path string, logger logging.Logger) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return decodeKey(data)
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: read key file: %w", common.ErrIOFault, err)
	}

	key := common.GenerateRandByteArray(KeySize)
	if err := writeSecret(path, key); err != nil {
		return nil, err
	}

	logger.Warn(ctx, "new encryption key created; losing this file makes every stored record permanently unrecoverable",
		"path", path)
	return key, nil
}

// KeyFromPassphrase derives the file key from an operator passphrase. The
// argon2 salt lives next to the store in saltPath and is created on first use.
func KeyFromPassphrase(ctx context.Context, passphrase, saltPath string, logger logging.Logger) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: empty passphrase", ErrMalformedKey)
	}

	var salt []byte
	data, err := os.ReadFile(saltPath)
	switch {
	case err == nil:
		salt, err = base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if err != nil || len(salt) < saltSize {
			return nil, fmt.Errorf("%w: bad salt file %s", ErrMalformedKey, saltPath)
		}
	case os.IsNotExist(err):
		salt = common.GenerateRandByteArray(saltSize)
		if err := writeSecret(saltPath, salt); err != nil {
			return nil, err
		}
		logger.Warn(ctx, "new key salt created; losing this file or the passphrase makes every stored record permanently unrecoverable",
			"path", saltPath)
	default:
		return nil, fmt.Errorf("%w: read salt file: %w", common.ErrIOFault, err)
	}

	return DeriveKey([]byte(passphrase), salt), nil
}

func decodeKey(data []byte) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedKey, len(key), KeySize)
	}
	return key, nil
}

func writeSecret(path string, b []byte) error {
	if err := filex.EnsureParentDir(path); err != nil {
		return fmt.Errorf("%w: %w", common.ErrIOFault, err)
	}
	encoded := base64.StdEncoding.EncodeToString(b) + "\n"
	if err := filex.WriteFileAtomic(path, []byte(encoded), 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %w", common.ErrIOFault, path, err)
	}
	return nil
}
