package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// mockMarkerClaim distinguishes locally issued tokens from tokens signed
// by the identity provider. A production verifier never consults it.
const mockMarkerClaim = "mock"

// MockTokenTTL is the lifetime of locally issued tokens.
const MockTokenTTL = 8 * time.Hour

// MockIssuer mints and parses locally issued "mock" tokens, the internal
// substitute for the identity provider during development and in
// deployments that run without one. Tokens are HS256 signed with the
// session secret and self-assert their claims.
type MockIssuer struct {
	secret           []byte
	issuer           string
	rolesClaim       string
	permissionsClaim string
}

// NewMockIssuer constructs a MockIssuer. The claim namespaces mirror the
// identity provider's so the same extraction path serves both token kinds.
func NewMockIssuer(secret, issuer, rolesClaim, permissionsClaim string) *MockIssuer {
	return &MockIssuer{
		secret:           []byte(secret),
		issuer:           issuer,
		rolesClaim:       rolesClaim,
		permissionsClaim: permissionsClaim,
	}
}

// Mint produces a signed mock token for the given principal fields.
func (m *MockIssuer) Mint(id, email, name string, roles, permissions []string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":              id,
		"email":            email,
		"name":             name,
		"iss":              m.issuer,
		"iat":              jwt.NewNumericDate(time.Now()),
		"exp":              jwt.NewNumericDate(expiresAt),
		"jti":              uuid.NewString(),
		mockMarkerClaim:    true,
		m.rolesClaim:       roles,
		m.permissionsClaim: permissions,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign mock token: %w", err)
	}
	return signed, nil
}

// IsMockToken peeks at an unverified token payload for the mock marker.
// The marker only routes the token to the right verifier; it grants
// nothing by itself.
func IsMockToken(tokenString string) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return false
	}
	marker, _ := claims[mockMarkerClaim].(bool)
	return marker
}

// Parse verifies a mock token's signature and expiry and returns the
// claims. Expired tokens return ErrTokenExpired; anything else that fails
// verification returns ErrTokenInvalid.
func (m *MockIssuer) Parse(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return claims, nil
}

// PrincipalFromMockClaims builds a Principal from verified mock claims.
func (m *MockIssuer) PrincipalFromMockClaims(claims jwt.MapClaims) (Principal, error) {
	sub := ExtractString(claims, "sub")
	if sub == "" {
		return Principal{}, fmt.Errorf("%w: missing sub claim", ErrTokenInvalid)
	}

	roles, err := ExtractStrings(claims, m.rolesClaim)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	permissions, err := ExtractStrings(claims, m.permissionsClaim)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	return Principal{
		ID:          sub,
		Email:       ExtractString(claims, "email"),
		DisplayName: ExtractString(claims, "name"),
		Roles:       roles,
		Permissions: permissions,
		Source:      SourceMock,
	}, nil
}
