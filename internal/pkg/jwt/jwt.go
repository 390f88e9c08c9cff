// Package jwt verifies the access tokens issued by the portal's identity
// provider and maps their claims onto a user.Identity.
package jwt

import (
	"errors"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	ClaimUserID       = "user_id"
	ClaimName         = "name"
	ClaimEmail        = "email"
	ClaimRole         = "role"
	ClaimReportsTo    = "reports_to"
	ClaimIsTechnician = "is_technician"
	ClaimType         = "type"

	TokenTypeAccess = "access"
)

var ErrInvalidClaims = errors.New("token claims are missing user_id")

type Service interface {
	JWTAuth() *jwtauth.JWTAuth

	// GenerateAccessToken signs a token for identity. The portal normally
	// receives tokens from its identity provider; this is used by tooling
	// and tests.
	GenerateAccessToken(identity user.Identity, ttl time.Duration) (token string, expiresAt int64, err error)
}

type JWTService struct {
	tokenAuth *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, leeway time.Duration) Service {
	return &JWTService{
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(leeway)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(identity user.Identity, ttl time.Duration) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(ttl).Unix()

	claims := map[string]interface{}{
		ClaimUserID:       identity.ID,
		ClaimName:         identity.Name,
		ClaimEmail:        identity.Email,
		ClaimRole:         identity.Role.Label(),
		ClaimReportsTo:    returnValueOrNil(identity.ReportsTo),
		ClaimIsTechnician: identity.IsTechnician,
		ClaimType:         TokenTypeAccess,
		"exp":             expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// IdentityFromClaims builds the caller identity. The role label is
// normalized here and nowhere else on the request path.
func IdentityFromClaims(claims map[string]interface{}) (user.Identity, error) {
	id, _ := claims[ClaimUserID].(string)
	if id == "" {
		return user.Identity{}, ErrInvalidClaims
	}

	identity := user.Identity{ID: id}
	identity.Name, _ = claims[ClaimName].(string)
	identity.Email, _ = claims[ClaimEmail].(string)

	role, _ := claims[ClaimRole].(string)
	identity.Role = user.ParseRole(role)

	if manager, ok := claims[ClaimReportsTo].(string); ok && manager != "" {
		identity.ReportsTo = &manager
	}
	identity.IsTechnician, _ = claims[ClaimIsTechnician].(bool)

	return identity, nil
}

func returnValueOrNil(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}
