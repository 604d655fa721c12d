package security

import (
	"errors"
	"fmt"
	"time"

	"codeapt/internal/domain/model"
	"codeapt/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// Claims is the identity a session token carries.
type Claims struct {
	UserID string
	Role   string
}

const (
	claimUserID = "user_id"
	claimRole   = "role"
)

var ErrInvalidClaims = errors.New("invalid token claims")

func (c Claims) toMap(now time.Time, ttl time.Duration) jwt.MapClaims {
	return jwt.MapClaims{
		claimUserID: c.UserID,
		claimRole:   c.Role,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
}

// GenerateToken signs c with the configured key and lifetime.
func GenerateToken(c Claims) (string, error) {
	if err := c.validate(); err != nil {
		return "", err
	}
	_, tokenString, err := TokenAuth.Encode(c.toMap(time.Now(), config.AppConfig.JWTExp))
	return tokenString, err
}

// ClaimsFromMap reads the identity out of a verified token's claim set.
func ClaimsFromMap(m jwt.MapClaims) (Claims, error) {
	id, ok := m[claimUserID].(string)
	if !ok {
		return Claims{}, fmt.Errorf("%w: %s is missing or not a string", ErrInvalidClaims, claimUserID)
	}
	role, ok := m[claimRole].(string)
	if !ok {
		return Claims{}, fmt.Errorf("%w: %s is missing or not a string", ErrInvalidClaims, claimRole)
	}
	c := Claims{UserID: id, Role: role}
	if err := c.validate(); err != nil {
		return Claims{}, err
	}
	return c, nil
}

func (c Claims) validate() error {
	if c.UserID == "" {
		return fmt.Errorf("%w: empty %s", ErrInvalidClaims, claimUserID)
	}
	if c.Role != model.RoleUser && c.Role != model.RoleAdmin {
		return fmt.Errorf("%w: unknown %s %q", ErrInvalidClaims, claimRole, c.Role)
	}
	return nil
}
