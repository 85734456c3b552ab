package logging

import (
	"strings"

	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
)

// MaskEmail keeps the first character of the local part and the full domain.
// Example: "john.doe@example.com" -> "j***@example.com"
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.LastIndex(email, "@")
	switch {
	case at == 0:
		return constants.MaskPlaceholder
	case at < 0:
		return maskPartial(email)
	}
	return email[:1] + "***" + email[at:]
}

// MaskToken masks a JWT token, preserving only prefix.
// Example: "eyJhbGciOiJIUzI1NiJ9.xxx" -> "eyJh...***REDACTED***"
func MaskToken(token string) string {
	if token == "" {
		return constants.MaskPlaceholder
	}

	if len(token) > constants.MaskPreserveLen {
		return token[:constants.MaskPreserveLen] + constants.MaskSeparator + constants.MaskPlaceholder
	}
	return constants.MaskPlaceholder
}

// maskPartial applies partial masking to a string.
// If the string is shorter than MaskMinLength, it's fully masked.
// Otherwise, first and last MaskPreserveLen characters are preserved.
func maskPartial(s string) string {
	if len(s) < constants.MaskMinLength {
		return constants.MaskPlaceholder
	}

	prefix := s[:constants.MaskPreserveLen]
	suffix := s[len(s)-constants.MaskPreserveLen:]
	return prefix + constants.MaskSeparator + suffix
}
