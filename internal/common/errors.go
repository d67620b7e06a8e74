// Package common defines the fault taxonomy and small helpers shared by the
// identification engine and the credential store. Callers should use
// errors.Is to match these values.
package common

import "errors"

// Fault categories. Every specific error in the project wraps exactly one of
// them, so callers can branch on the category without knowing the concrete
// sentinel.
var (
	// ErrDetectionFault covers capture problems the user fixes by recapturing:
	// no face, several faces, degenerate landmark geometry.
	ErrDetectionFault = errors.New("detection fault")

	// ErrStoreFault covers record-level problems: duplicate name, unknown name,
	// signature size mismatch, undecryptable store file.
	ErrStoreFault = errors.New("store fault")

	// ErrIOFault covers filesystem and database I/O failures.
	ErrIOFault = errors.New("io fault")
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
)
