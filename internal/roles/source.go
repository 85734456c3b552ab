// Package roles is the authoritative user -> platform role directory consulted on cache miss.
package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
)

// ErrUserNotFound is returned when the directory has no record for the email.
var ErrUserNotFound = errors.New(constants.ErrUserNotFound)

// Source looks up the roles of a user. Implementations return ErrUserNotFound for unknown
// users and an empty slice for known users without roles.
type Source interface {
	Roles(ctx context.Context, email string) ([]string, error)
}

// ValidName reports whether a role can travel in x-user-roles unescaped.
func ValidName(role string) bool {
	if role == "" {
		return false
	}
	for _, r := range role {
		if unicode.IsSpace(r) || r == ',' || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// Validate returns an error naming the first role that fails ValidName.
func Validate(roles []string) error {
	for _, role := range roles {
		if !ValidName(role) {
			return fmt.Errorf(constants.ErrInvalidRoleName, role)
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
