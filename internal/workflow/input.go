package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/facegate/internal/cryptox"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims surrounding space and applies Unicode NFC so visually
// identical names map to the same record.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

type credentialsInput struct {
	Name        string `validate:"required,max=128"`
	Password    string `validate:"required,max=72"`
	NewPassword string `validate:"omitempty,max=72"`
}

// checkPasswordBytes enforces the bcrypt input limit, which counts bytes
// where the validator counts characters.
func checkPasswordBytes(passwords ...string) error {
	for _, p := range passwords {
		if len(p) > cryptox.MaxPasswordLength {
			return fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, cryptox.MaxPasswordLength)
		}
	}
	return nil
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func validateInput(v *validator.Validate, in any) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fieldError(fe))
		}
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
