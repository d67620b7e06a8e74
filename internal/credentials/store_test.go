package credentials

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/facegate/internal/common"
	"github.com/dmitrijs2005/facegate/internal/cryptox"
	"github.com/dmitrijs2005/facegate/internal/features"
	"github.com/dmitrijs2005/facegate/internal/logging"
	"github.com/dmitrijs2005/facegate/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newStore(t *testing.T) (*Store, *vault.Vault) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user_identification.db")
	v := vault.New(path, common.GenerateRandByteArray(cryptox.KeySize), logging.Discard())
	return New(v, bcrypt.MinCost, logging.Discard()), v
}

func sig(base float64) features.Signature {
	s := make(features.Signature, features.Length)
	for i := range s {
		s[i] = base + float64(i)/100
	}
	return s
}

func assertSealed(t *testing.T, v *vault.Vault) {
	t.Helper()
	enc, err := v.IsEncrypted()
	require.NoError(t, err)
	assert.True(t, enc, "store file must be encrypted between operations")
}

func fileBytes(t *testing.T, v *vault.Vault) []byte {
	t.Helper()
	b, err := os.ReadFile(v.Path())
	require.NoError(t, err)
	return b
}

func TestInit(t *testing.T) {
	s, v := newStore(t)
	require.NoError(t, s.Init(context.Background()))
	assertSealed(t, v)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assertSealed(t, v)
}

func TestRegisterAndExists(t *testing.T) {
	ctx := context.Background()
	s, v := newStore(t)

	_, ok, err := s.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Register(ctx, "alice", "p1", sig(1), false))
	assertSealed(t, v)

	u, ok, err := s.Exists(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", u.Name)
	assert.Equal(t, sig(1), u.Signature)
	assert.NotEqual(t, "p1", u.PasswordHash)
	assert.True(t, s.Verify(u.PasswordHash, "p1"))
	assert.False(t, s.Verify(u.PasswordHash, "p2"))
	assertSealed(t, v)

	assert.NotContains(t, string(fileBytes(t, v)), "alice")
}

func TestRegister_Duplicate(t *testing.T) {
	ctx := context.Background()
	s, v := newStore(t)
	require.NoError(t, s.Register(ctx, "alice", "p1", sig(1), false))

	err := s.Register(ctx, "alice", "p2", sig(2), false)
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.ErrorIs(t, err, common.ErrStoreFault)
	assertSealed(t, v)

	u, _, err := s.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, sig(1), u.Signature)
	assert.True(t, s.Verify(u.PasswordHash, "p1"))
}

func TestRegister_OverwriteMissing(t *testing.T) {
	ctx := context.Background()
	s, v := newStore(t)
	require.NoError(t, s.Register(ctx, "alice", "p1", sig(1), false))

	err := s.Register(ctx, "bob", "p2", sig(2), true)
	assert.ErrorIs(t, err, ErrNotFound)
	assertSealed(t, v)

	_, ok, err := s.Exists(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegister_Overwrite(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	require.NoError(t, s.Register(ctx, "alice", "p1", sig(1), false))
	before, _, err := s.Exists(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, s.Register(ctx, "alice", "p2", sig(5), true))

	after, ok, err := s.Exists(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, sig(5), after.Signature)
	assert.True(t, s.Verify(after.PasswordHash, "p2"))
	assert.False(t, s.Verify(after.PasswordHash, "p1"))
}

func TestAllRecords(t *testing.T) {
	ctx := context.Background()
	s, v := newStore(t)

	empty, err := s.AllRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.Register(ctx, "alice", "p1", sig(1), false))
	require.NoError(t, s.Register(ctx, "bob", "p2", sig(2), false))

	list, err := s.AllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].Name)
	assert.Equal(t, "bob", list[1].Name)
	assert.Equal(t, sig(2), list[1].Signature)
	for _, u := range list {
		assert.Empty(t, u.PasswordHash)
	}
	assertSealed(t, v)

	again, err := s.AllRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, list, again)
}

func TestWrongKey(t *testing.T) {
	ctx := context.Background()
	s, v := newStore(t)
	require.NoError(t, s.Register(ctx, "alice", "p1", sig(1), false))
	sealed := fileBytes(t, v)

	other := New(vault.New(v.Path(), common.GenerateRandByteArray(cryptox.KeySize), logging.Discard()), bcrypt.MinCost, logging.Discard())
	_, _, err := other.Exists(ctx, "alice")
	assert.ErrorIs(t, err, cryptox.ErrInvalidKeyOrCorruptFile)
	assert.ErrorIs(t, err, common.ErrStoreFault)

	err = other.Register(ctx, "eve", "x", sig(3), false)
	assert.ErrorIs(t, err, cryptox.ErrInvalidKeyOrCorruptFile)
	assert.Equal(t, sealed, fileBytes(t, v))
}

func TestPlaintextStoreIsAdopted(t *testing.T) {
	ctx := context.Background()
	s, v := newStore(t)
	require.NoError(t, s.Register(ctx, "alice", "p1", sig(1), false))
	require.NoError(t, v.Unlock(ctx))

	enc, err := v.IsEncrypted()
	require.NoError(t, err)
	require.False(t, enc)

	u, ok, err := s.Exists(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", u.Name)
	assertSealed(t, v)
}

func TestUnreadableDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "store.db")
	s := New(vault.New(path, common.GenerateRandByteArray(cryptox.KeySize), logging.Discard()), bcrypt.MinCost, logging.Discard())

	_, err := s.AllRecords(context.Background())
	assert.ErrorIs(t, err, common.ErrIOFault)
}
