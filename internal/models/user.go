// Package models defines the records kept by the credential store.
package models

import "github.com/dmitrijs2005/facegate/internal/features"

// User is one enrolled identity. PasswordHash is a bcrypt hash and is empty
// when the record was loaded for matching only.
type User struct {
	ID           int64
	Name         string
	PasswordHash string
	Signature    features.Signature
}
