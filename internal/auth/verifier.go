package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pallavilagisetti/admin-control-sub001/internal/config"
)

// verifierMethods lists the accepted signing algorithms. Symmetric
// algorithms are excluded: a token an API server could forge proves
// nothing about the identity provider.
var verifierMethods = []string{
	jwt.SigningMethodRS256.Alg(),
	jwt.SigningMethodES256.Alg(),
}

// Verifier validates production tokens against the identity provider's
// key set and extracts the principal from well-known and namespaced
// custom claims.
type Verifier struct {
	keys             *KeysetCache
	audience         string
	issuer           string
	rolesClaim       string
	permissionsClaim string
}

// NewVerifier constructs a Verifier for the configured identity provider.
func NewVerifier(idp *config.IdPConfig, keys *KeysetCache) *Verifier {
	return &Verifier{
		keys:             keys,
		audience:         idp.Audience,
		issuer:           fmt.Sprintf("https://%s/", idp.Domain),
		rolesClaim:       idp.RolesClaim,
		permissionsClaim: idp.PermissionsClaim,
	}
}

// Verify checks the token's signature, algorithm, audience, and issuer,
// and returns the extracted principal.
//
// Error mapping follows the gate's failure semantics: expired or
// malformed tokens are credential failures (ErrTokenExpired or
// ErrTokenInvalid, answered 401); signature, audience, issuer, or
// algorithm mismatches are policy failures (ErrClaimMismatch, answered
// 403); a key set outage inside the transient window surfaces
// ErrKeysetUnavailable.
func (v *Verifier) Verify(tokenString string) (Principal, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc,
		jwt.WithValidMethods(verifierMethods),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Principal{}, v.mapError(err)
	}

	return v.principalFromClaims(claims)
}

func (v *Verifier) keyFunc(token *jwt.Token) (any, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("%w: token missing kid header", ErrTokenInvalid)
	}
	return v.keys.Key(kid)
}

func (v *Verifier) mapError(err error) error {
	switch {
	case errors.Is(err, ErrKeysetUnavailable):
		return err
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrClaimMismatch, err)
	case errors.Is(err, ErrClaimMismatch):
		return err
	case errors.Is(err, ErrTokenInvalid):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}

func (v *Verifier) principalFromClaims(claims jwt.MapClaims) (Principal, error) {
	sub := ExtractString(claims, "sub")
	if sub == "" {
		return Principal{}, fmt.Errorf("%w: missing sub claim", ErrTokenInvalid)
	}

	roles, err := ExtractStrings(claims, v.rolesClaim)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	permissions, err := ExtractStrings(claims, v.permissionsClaim)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	return Principal{
		ID:          sub,
		Email:       ExtractString(claims, "email"),
		DisplayName: ExtractString(claims, "name"),
		Roles:       roles,
		Permissions: permissions,
		Source:      SourceIdP,
	}, nil
}
