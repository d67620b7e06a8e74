// Package credentials is the encrypted credential store.
//
// Every operation runs in one vault window: the store file is decrypted,
// opened as SQLite, migrated, used, closed and sealed again before the call
// returns. Passwords are kept only as bcrypt hashes.
//
// Losing the key file makes every record in the store permanently
// unrecoverable. Back it up separately from the store file.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/facegate/internal/common"
	"github.com/dmitrijs2005/facegate/internal/cryptox"
	"github.com/dmitrijs2005/facegate/internal/dbx"
	"github.com/dmitrijs2005/facegate/internal/features"
	"github.com/dmitrijs2005/facegate/internal/logging"
	"github.com/dmitrijs2005/facegate/internal/migrations"
	"github.com/dmitrijs2005/facegate/internal/models"
	"github.com/dmitrijs2005/facegate/internal/repositories/users"
	"github.com/dmitrijs2005/facegate/internal/vault"
)

var (
	ErrDuplicateName = fmt.Errorf("%w: name already registered", common.ErrStoreFault)
	ErrNotFound      = fmt.Errorf("%w: name not registered", common.ErrStoreFault)
)

type Store struct {
	vault        *vault.Vault
	passwordCost int
	logger       logging.Logger
}

// New returns a store over the file guarded by v. passwordCost is the bcrypt
// cost; zero selects the library default.
func New(v *vault.Vault, passwordCost int, logger logging.Logger) *Store {
	return &Store{vault: v, passwordCost: passwordCost, logger: logger}
}

// ioFault tags uncategorised errors as I/O faults.
func ioFault(err error) error {
	if err == nil || errors.Is(err, common.ErrStoreFault) || errors.Is(err, common.ErrIOFault) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrIOFault, err)
}

// window opens the decrypted store for the duration of fn.
func (s *Store) window(ctx context.Context, fn func(ctx context.Context, db *sql.DB) error) error {
	err := s.vault.WithPlaintext(ctx, func(ctx context.Context, path string) (err error) {
		db, err := dbx.OpenSQLite(ctx, path)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				err = errors.Join(err, ioFault(cerr))
			}
		}()

		if err := dbx.Migrate(ctx, db, migrations.Migrations); err != nil {
			return err
		}
		return fn(ctx, db)
	})
	return ioFault(err)
}

// Init creates the store file and its schema if needed and leaves it
// encrypted.
func (s *Store) Init(ctx context.Context) error {
	if err := s.window(ctx, func(ctx context.Context, db *sql.DB) error { return nil }); err != nil {
		return err
	}
	s.logger.Info(ctx, "credential store ready", "path", s.vault.Path())
	return nil
}

// Exists looks name up. ok is false when there is no such record.
func (s *Store) Exists(ctx context.Context, name string) (user *models.User, ok bool, err error) {
	err = s.window(ctx, func(ctx context.Context, db *sql.DB) error {
		u, err := users.NewSQLiteRepository(db).GetByName(ctx, name)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		user, ok = u, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return user, ok, nil
}

// Register stores a new record, or with overwrite replaces the password hash
// and signature of an existing one. A failed call leaves the store unchanged.
func (s *Store) Register(ctx context.Context, name, password string, sig features.Signature, overwrite bool) error {
	hash, err := cryptox.HashPassword(password, s.passwordCost)
	if err != nil {
		return err
	}

	err = s.window(ctx, func(ctx context.Context, db *sql.DB) error {
		return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := users.NewSQLiteRepository(tx)

			if overwrite {
				err := repo.UpdateCredentials(ctx, name, hash, sig)
				if errors.Is(err, common.ErrorNotFound) {
					return ErrNotFound
				}
				return err
			}

			_, err := repo.Create(ctx, &models.User{Name: name, PasswordHash: hash, Signature: sig})
			if errors.Is(err, common.ErrorAlreadyExists) {
				return ErrDuplicateName
			}
			return err
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "user registered", "name", name, "overwrite", overwrite)
	return nil
}

// Verify checks a candidate password against a stored hash.
func (s *Store) Verify(passwordHash, password string) bool {
	return cryptox.VerifyPassword(passwordHash, password)
}

// AllRecords returns id, name and signature of every record. Password
// hashes are not loaded.
func (s *Store) AllRecords(ctx context.Context) ([]models.User, error) {
	var list []models.User
	err := s.window(ctx, func(ctx context.Context, db *sql.DB) error {
		var err error
		list, err = users.NewSQLiteRepository(db).List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Count returns the number of enrolled records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.window(ctx, func(ctx context.Context, db *sql.DB) error {
		var err error
		n, err = users.NewSQLiteRepository(db).Count(ctx)
		return err
	})
	return n, err
}
