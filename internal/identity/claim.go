// Package identity turns a bearer credential into an identity claim set.
//
// Nothing here verifies signatures. Envoy's jwt_authn filter validates the token before the
// request reaches any service in this module; callers must only hand this package credentials
// that already crossed that boundary.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
)

// JWT claim keys
const (
	ClaimEmail             = "email"
	ClaimSub               = "sub"
	ClaimPreferredUsername = "preferred_username"
	ClaimName              = "name"
	ClaimRealmAccess       = "realm_access"
	ClaimRoles             = "roles"
)

const tokenSegments = 3

var (
	// ErrMissingCredential means no Authorization header was sent.
	ErrMissingCredential = errors.New(constants.ErrMissingCredential)
	// ErrMalformedCredential covers bad schemes, segment counts, base64 and JSON.
	ErrMalformedCredential = errors.New(constants.ErrMalformedCredential)
	// ErrMissingIdentity means the payload decoded but carried no usable email.
	ErrMissingIdentity = errors.New(constants.ErrMissingIdentity)
	// ErrBearerScheme is the ErrMalformedCredential case where the header is not "Bearer <token>".
	ErrBearerScheme = fmt.Errorf("%w: %s", ErrMalformedCredential, constants.ErrAuthScheme)
)

// segmentParser is only used for its base64url segment decoding.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Claim is the application-relevant part of a token payload.
type Claim struct {
	Email             string
	Subject           string
	PreferredUsername string
	DisplayName       string
	// RealmRoles are the identity provider's roles. Authorization uses the role source instead.
	RealmRoles []string
}

// ParseClaim decodes the payload segment of a three-segment token.
func ParseClaim(token string) (*Claim, error) {
	parts := strings.Split(token, ".")
	if len(parts) != tokenSegments {
		return nil, fmt.Errorf("%w: "+constants.ErrSegmentCount, ErrMalformedCredential, len(parts))
	}

	raw, err := segmentParser.DecodeSegment(padSegment(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("%w: "+constants.ErrPayloadDecode, ErrMalformedCredential, err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: "+constants.ErrPayloadJSON, ErrMalformedCredential, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedCredential, constants.ErrPayloadNotObject)
	}

	email, _ := payload[ClaimEmail].(string)
	if email == "" {
		return nil, ErrMissingIdentity
	}

	claim := &Claim{Email: email}
	claim.Subject, _ = payload[ClaimSub].(string)
	claim.PreferredUsername, _ = payload[ClaimPreferredUsername].(string)
	claim.DisplayName, _ = payload[ClaimName].(string)
	claim.RealmRoles = realmRoles(payload)
	return claim, nil
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header value.
// The scheme is matched case-insensitively.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingCredential
	}
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], constants.BearerScheme) {
		return "", ErrBearerScheme
	}
	return fields[1], nil
}

// FromAuthorization extracts the claim from a raw Authorization header value.
func FromAuthorization(header string) (*Claim, error) {
	token, err := BearerToken(header)
	if err != nil {
		return nil, err
	}
	return ParseClaim(token)
}

// padSegment pads a base64url segment to a multiple of four.
func padSegment(seg string) string {
	if rem := len(seg) % 4; rem != 0 {
		return seg + strings.Repeat("=", 4-rem)
	}
	return seg
}

func realmRoles(payload map[string]any) []string {
	access, ok := payload[ClaimRealmAccess].(map[string]any)
	if !ok {
		return nil
	}
	list, ok := access[ClaimRoles].([]any)
	if !ok {
		return nil
	}
	roles := make([]string, 0, len(list))
	for _, r := range list {
		if s, ok := r.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}
