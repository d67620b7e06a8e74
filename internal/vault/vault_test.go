package vault

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/facegate/internal/common"
	"github.com/dmitrijs2005/facegate/internal/cryptox"
	"github.com/dmitrijs2005/facegate/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sqliteLike = append(append([]byte{}, PlaintextMagic...), []byte("page data")...)

func newVault(t *testing.T) (*Vault, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.db")
	return New(path, common.GenerateRandByteArray(cryptox.KeySize), logging.Discard()), path
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func TestIsPlaintext(t *testing.T) {
	assert.True(t, IsPlaintext(nil))
	assert.True(t, IsPlaintext(sqliteLike))
	assert.False(t, IsPlaintext([]byte("SQLite format 2\x00")))
	assert.False(t, IsPlaintext([]byte{0x01, 0x02}))
}

func TestLockUnlock_RoundTrip(t *testing.T) {
	ctx := context.Background()

	for _, content := range [][]byte{sqliteLike, {}} {
		v, path := newVault(t)
		require.NoError(t, os.WriteFile(path, content, 0o600))

		require.NoError(t, v.Lock(ctx))
		enc, err := v.IsEncrypted()
		require.NoError(t, err)
		assert.True(t, enc)
		assert.NotEqual(t, content, readFile(t, path))

		// locking twice does not double-encrypt
		require.NoError(t, v.Lock(ctx))

		require.NoError(t, v.Unlock(ctx))
		assert.Equal(t, content, readFile(t, path))

		// unlocking plaintext is a no-op
		require.NoError(t, v.Unlock(ctx))
		assert.Equal(t, content, readFile(t, path))
	}
}

func TestMissingFile(t *testing.T) {
	ctx := context.Background()
	v, path := newVault(t)

	require.NoError(t, v.Unlock(ctx))
	require.NoError(t, v.Lock(ctx))
	enc, err := v.IsEncrypted()
	require.NoError(t, err)
	assert.False(t, enc)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestUnlock_WrongKey(t *testing.T) {
	ctx := context.Background()
	v, path := newVault(t)
	require.NoError(t, os.WriteFile(path, sqliteLike, 0o600))
	require.NoError(t, v.Lock(ctx))
	sealed := readFile(t, path)

	other := New(path, common.GenerateRandByteArray(cryptox.KeySize), logging.Discard())
	err := other.Unlock(ctx)
	assert.ErrorIs(t, err, cryptox.ErrInvalidKeyOrCorruptFile)
	assert.Equal(t, sealed, readFile(t, path), "file must be left untouched")
}

func TestUnlock_ForeignFile(t *testing.T) {
	v, path := newVault(t)
	require.NoError(t, os.WriteFile(path, []byte("this is not a database nor an envelope"), 0o600))

	err := v.Unlock(context.Background())
	assert.ErrorIs(t, err, cryptox.ErrInvalidKeyOrCorruptFile)
	assert.ErrorIs(t, err, common.ErrStoreFault)

	enc, err := v.IsEncrypted()
	require.NoError(t, err)
	assert.False(t, enc)

	_, encrypted, err := v.Snapshot()
	require.NoError(t, err)
	assert.False(t, encrypted)
}

func TestWithPlaintext(t *testing.T) {
	ctx := context.Background()
	v, path := newVault(t)
	require.NoError(t, os.WriteFile(path, sqliteLike, 0o600))
	require.NoError(t, v.Lock(ctx))
	edited := []byte(string(sqliteLike) + "!")

	err := v.WithPlaintext(ctx, func(ctx context.Context, p string) error {
		assert.Equal(t, path, p)
		assert.Equal(t, sqliteLike, readFile(t, p))
		return os.WriteFile(p, edited, 0o600)
	})
	require.NoError(t, err)

	enc, err := v.IsEncrypted()
	require.NoError(t, err)
	assert.True(t, enc)

	require.NoError(t, v.Unlock(ctx))
	assert.Equal(t, edited, readFile(t, path))
}

func TestWithPlaintext_EncryptsNewFile(t *testing.T) {
	ctx := context.Background()
	v, path := newVault(t)

	err := v.WithPlaintext(ctx, func(ctx context.Context, p string) error {
		return os.WriteFile(p, sqliteLike, 0o600)
	})
	require.NoError(t, err)

	enc, err := v.IsEncrypted()
	require.NoError(t, err)
	assert.True(t, enc)
	assert.True(t, cryptox.IsSealed(readFile(t, path)))
}

func TestWithPlaintext_RelocksOnError(t *testing.T) {
	ctx := context.Background()
	v, path := newVault(t)
	require.NoError(t, os.WriteFile(path, sqliteLike, 0o600))

	boom := errors.New("boom")
	err := v.WithPlaintext(ctx, func(ctx context.Context, p string) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	enc, err := v.IsEncrypted()
	require.NoError(t, err)
	assert.True(t, enc)
}

func TestWithPlaintext_RelocksOnPanic(t *testing.T) {
	ctx := context.Background()
	v, path := newVault(t)
	require.NoError(t, os.WriteFile(path, sqliteLike, 0o600))

	func() {
		defer func() {
			assert.Equal(t, "kaput", recover())
		}()
		_ = v.WithPlaintext(ctx, func(ctx context.Context, p string) error {
			panic("kaput")
		})
	}()

	enc, err := v.IsEncrypted()
	require.NoError(t, err)
	assert.True(t, enc)

	// the mutex was released
	require.NoError(t, v.WithPlaintext(ctx, func(ctx context.Context, p string) error { return nil }))
}

func TestWithPlaintext_UnlockFailureSkipsFn(t *testing.T) {
	v, path := newVault(t)
	require.NoError(t, os.WriteFile(path, []byte{0x01, 0x02, 0x03}, 0o600))

	called := false
	err := v.WithPlaintext(context.Background(), func(ctx context.Context, p string) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, cryptox.ErrInvalidKeyOrCorruptFile)
	assert.False(t, called)
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	v, path := newVault(t)

	_, _, err := v.Snapshot()
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorIs(t, err, common.ErrIOFault)

	require.NoError(t, os.WriteFile(path, sqliteLike, 0o600))
	data, enc, err := v.Snapshot()
	require.NoError(t, err)
	assert.False(t, enc)
	assert.Equal(t, sqliteLike, data)

	require.NoError(t, v.Lock(ctx))
	data, enc, err = v.Snapshot()
	require.NoError(t, err)
	assert.True(t, enc)
	assert.Equal(t, readFile(t, path), data)
}
