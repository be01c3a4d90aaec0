package core

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("token invalid")
	ErrUnrecognizedToken = errors.New("unrecognized token")
)

const tokenIssuer = "kiosk"

// AuthClaims is the payload carried inside a session token: the subject
// is the username, the expiry is always set.
type AuthClaims struct {
	jwt.RegisteredClaims
}

func NewClaims(username string, exp time.Time) *AuthClaims {
	return &AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
			ID:        uuid.NewString(),
		},
	}
}

func (c *AuthClaims) Username() string {
	return c.Subject
}

// NewToken mints a signed token for username that expires ttl from now.
func NewToken(username string, ttl time.Duration, secret []byte) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, NewClaims(username, exp))

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", exp, err
	}

	return signed, exp, nil
}

// VerifyToken decodes and validates a token. A token with a bad
// signature, a malformed payload, or a missing expiry yields
// ErrTokenInvalid; an elapsed expiry yields ErrTokenExpired.
func VerifyToken(token string, secret []byte) (*AuthClaims, error) {
	claims := &AuthClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
	)

	switch {
	case err == nil && parsed.Valid:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return nil, ErrTokenInvalid
	default:
		return nil, ErrUnrecognizedToken
	}
}
