// Package auth issues and validates bearer API tokens for the pipeline
// submission HTTP surface (SPEC_FULL.md DOMAIN STACK), adapted from the
// teacher's internal/auth JWT service pattern but scoped to a single
// claim — the caller's token subject — instead of a full user/session
// model, since the core has no concept of accounts.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identifies the bearer of an API token.
type Claims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

// TokenService signs and validates HS256 API tokens.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenService returns a TokenService signing with secret, issuing
// tokens valid for ttl (defaulting to 24h).
func NewTokenService(secret, issuer string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// Issue mints a signed token for subject.
func (s *TokenService) Issue(subject string) (string, error) {
	claims := Claims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Subject:   subject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and verifies a bearer token string.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
