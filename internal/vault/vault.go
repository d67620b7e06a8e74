// Package vault keeps a single SQLite file encrypted at rest.
//
// The file is sealed with cryptox.Seal whenever no operation is running.
// WithPlaintext opens a window: the file is decrypted in place, the callback
// runs against the plaintext path, and the file is sealed again on every exit
// path, including errors and panics. Windows are serialized by the vault.
//
// The plaintext format is recognised by the SQLite magic header. A file that
// carries it (or is empty) is considered not yet encrypted and is left as is
// by Unlock; a missing file is not an error for either direction.
package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dmitrijs2005/facegate/internal/common"
	"github.com/dmitrijs2005/facegate/internal/cryptox"
	"github.com/dmitrijs2005/facegate/internal/filex"
	"github.com/dmitrijs2005/facegate/internal/logging"
)

// PlaintextMagic is the header every SQLite database file starts with.
var PlaintextMagic = []byte("SQLite format 3\x00")

const fileMode = 0o600

type Vault struct {
	path   string
	key    []byte
	logger logging.Logger

	mu sync.Mutex
}

func New(path string, key []byte, logger logging.Logger) *Vault {
	return &Vault{path: path, key: key, logger: logger}
}

func (v *Vault) Path() string {
	return v.path
}

// IsPlaintext reports whether data is an unencrypted store file.
func IsPlaintext(data []byte) bool {
	return len(data) == 0 || bytes.HasPrefix(data, PlaintextMagic)
}

// read returns the file content, or nil and false if it does not exist.
func (v *Vault) read() ([]byte, bool, error) {
	data, err := os.ReadFile(v.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: read %s: %w", common.ErrIOFault, v.path, err)
	}
	return data, true, nil
}

func (v *Vault) write(data []byte) error {
	if err := filex.WriteFileAtomic(v.path, data, fileMode); err != nil {
		return fmt.Errorf("%w: write %s: %w", common.ErrIOFault, v.path, err)
	}
	return nil
}

// IsEncrypted reports whether the file currently holds an envelope.
func (v *Vault) IsEncrypted() (bool, error) {
	data, ok, err := v.read()
	if err != nil || !ok {
		return false, err
	}
	return cryptox.IsSealed(data), nil
}

func (v *Vault) unlock(ctx context.Context) error {
	data, ok, err := v.read()
	if err != nil || !ok {
		return err
	}
	if IsPlaintext(data) {
		v.logger.Debug(ctx, "store file already plaintext", "path", v.path)
		return nil
	}

	if !cryptox.IsSealed(data) {
		return fmt.Errorf("%w: %s is neither a store file nor an envelope", cryptox.ErrInvalidKeyOrCorruptFile, v.path)
	}

	plain, err := cryptox.Open(v.key, data)
	if err != nil {
		return fmt.Errorf("decrypt %s: %w", v.path, err)
	}
	return v.write(plain)
}

func (v *Vault) lock(ctx context.Context) error {
	data, ok, err := v.read()
	if err != nil || !ok {
		return err
	}
	if !IsPlaintext(data) {
		return nil
	}

	sealed, err := cryptox.Seal(v.key, data)
	if err != nil {
		return fmt.Errorf("encrypt %s: %w", v.path, err)
	}
	if err := v.write(sealed); err != nil {
		return err
	}
	v.logger.Debug(ctx, "store file encrypted", "path", v.path, "bytes", len(data))
	return nil
}

// Unlock decrypts the file in place.
func (v *Vault) Unlock(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.unlock(ctx)
}

// Lock encrypts the file in place. Already encrypted files are untouched.
func (v *Vault) Lock(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lock(ctx)
}

// WithPlaintext runs fn with the decrypted file at path and seals the file
// again before returning. A failure to re-seal is joined with fn's error.
// Panics from fn are re-raised after sealing.
func (v *Vault) WithPlaintext(ctx context.Context, fn func(ctx context.Context, path string) error) (err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.unlock(ctx); err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			if lerr := v.lock(ctx); lerr != nil {
				v.logger.Error(ctx, "failed to re-encrypt store after panic", "path", v.path, "error", lerr)
			}
			panic(p)
		}
		if lerr := v.lock(ctx); lerr != nil {
			v.logger.Error(ctx, "failed to re-encrypt store", "path", v.path, "error", lerr)
			err = errors.Join(err, lerr)
		}
	}()

	return fn(ctx, v.path)
}

// Snapshot returns the current file content as it is at rest, read while no
// window is open. encrypted is false unless data is a sealed envelope.
func (v *Vault) Snapshot() (data []byte, encrypted bool, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	data, ok, err := v.read()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, fmt.Errorf("%w: %s: %w", common.ErrIOFault, v.path, os.ErrNotExist)
	}
	return data, cryptox.IsSealed(data), nil
}
