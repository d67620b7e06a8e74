// Package users is the persistence layer for enrolled identities.
//
// SQLiteRepository works over a dbx.DBTX, so it can be used with either a
// plain *sql.DB or inside dbx.WithTx. Signatures are stored as
// comma-separated text and decoded on read; undecodable rows surface
// features.ErrCorruptSignature.
package users

import (
	"context"

	"github.com/dmitrijs2005/facegate/internal/features"
	"github.com/dmitrijs2005/facegate/internal/models"
)

type Repository interface {
	// GetByName returns the full record, or common.ErrorNotFound.
	GetByName(ctx context.Context, name string) (*models.User, error)

	// Create inserts a record and fills its ID. A taken name yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// UpdateCredentials replaces hash and signature together, or returns
	// common.ErrorNotFound.
	UpdateCredentials(ctx context.Context, name, passwordHash string, sig features.Signature) error

	// List returns every record without its password hash, ordered by ID.
	List(ctx context.Context) ([]models.User, error)

	Count(ctx context.Context) (int, error)
}
