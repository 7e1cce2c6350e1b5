package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type TokenIssuer struct {
	config *Config
}

func NewTokenIssuer(config *Config) *TokenIssuer {
	return &TokenIssuer{config: config}
}

func (t *TokenIssuer) IssueToken(auth Auth) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   auth.SubjectId,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.config.TokenDuration)),
		},
		Email: auth.Email,
		Role:  auth.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(t.config.Secret))
}
