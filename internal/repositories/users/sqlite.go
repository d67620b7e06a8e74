package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/facegate/internal/common"
	"github.com/dmitrijs2005/facegate/internal/dbx"
	"github.com/dmitrijs2005/facegate/internal/features"
	"github.com/dmitrijs2005/facegate/internal/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	query := `SELECT id, name, password_hash, signature FROM users WHERE name = ?`

	var (
		u   models.User
		sig string
	)
	err := r.db.QueryRowContext(ctx, query, name).Scan(&u.ID, &u.Name, &u.PasswordHash, &sig)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	u.Signature, err = features.ParseSignature(sig)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", u.Name, err)
	}
	return &u, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `INSERT INTO users (name, password_hash, signature) VALUES (?, ?, ?) RETURNING id`

	err := r.db.QueryRowContext(ctx, query, user.Name, user.PasswordHash, user.Signature.String()).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *SQLiteRepository) UpdateCredentials(ctx context.Context, name, passwordHash string, sig features.Signature) error {
	query := `UPDATE users SET password_hash = ?, signature = ? WHERE name = ?`

	res, err := r.db.ExecContext(ctx, query, passwordHash, sig.String(), name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT id, name, signature FROM users ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.User
	for rows.Next() {
		var (
			u   models.User
			sig string
		)
		if err := rows.Scan(&u.ID, &u.Name, &sig); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if u.Signature, err = features.ParseSignature(sig); err != nil {
			return nil, fmt.Errorf("user %q: %w", u.Name, err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
