package roles

import (
	"context"
	"slices"

	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
)

// StaticSource is an in-memory directory. Lookups ignore email case.
type StaticSource struct {
	users map[string][]string
}

var _ Source = (*StaticSource)(nil)

// NewStaticSource builds a directory from email -> roles. Role names are validated.
func NewStaticSource(users map[string][]string) (*StaticSource, error) {
	s := &StaticSource{users: make(map[string][]string, len(users))}
	for email, list := range users {
		if err := Validate(list); err != nil {
			return nil, err
		}
		s.users[normalizeEmail(email)] = slices.Clone(list)
	}
	return s, nil
}

// DefaultDirectory is the seed data the platform test realm is provisioned with.
// testuserUNV@example.com is intentionally absent: it resolves to unverified-user.
func DefaultDirectory() map[string][]string {
	return map[string][]string{
		"testuser@example.com":    {constants.RoleUser},
		"adminuser@example.com":   {constants.RoleUser, constants.RoleAdmin, constants.RoleCustomerManager, constants.RoleProductManager},
		"testuserCM@example.com":  {constants.RoleUser, constants.RoleCustomerManager},
		"testuserPM@example.com":  {constants.RoleUser, constants.RoleProductManager},
		"testuserPCM@example.com": {constants.RoleUser, constants.RoleProductManager, constants.RoleCustomerManager},
		"john.doe@example.com":    {constants.RoleUser},
		"jane.smith@example.com":  {constants.RoleUser},
		"norole@example.com":      {},
	}
}

// Roles returns a copy of the stored roles.
func (s *StaticSource) Roles(_ context.Context, email string) ([]string, error) {
	list, ok := s.users[normalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return slices.Clone(list), nil
}
