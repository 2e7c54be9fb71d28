package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

var (
	errSecretRequired  = errors.New("jwt secret is required")
	errSubjectRequired = errors.New("jwt subject is required")
)

// MintCustomerToken signs a token the way the identity provider does. It is
// used by tests and local tooling; production tokens come from the provider.
func MintCustomerToken(cfg config.AuthConfig, now time.Time, ttl time.Duration, identity Identity) (string, error) {
	if cfg.JWTSecret == "" {
		return "", errSecretRequired
	}
	if cfg.JWTIssuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("jwt ttl must be positive")
	}
	subject := strings.TrimSpace(identity.CustomerID)
	if subject == "" {
		return "", errSubjectRequired
	}

	claims := CustomerClaims{
		Email: identity.Email,
		Name:  identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    cfg.JWTIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseCustomerToken validates signature, issuer and expiry and returns the
// claims. A token without a subject is rejected.
func ParseCustomerToken(cfg config.AuthConfig, tokenString string) (*CustomerClaims, error) {
	if cfg.JWTSecret == "" {
		return nil, errSecretRequired
	}

	claims := &CustomerClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.JWTSecret), nil
		},
		opts...,
	)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errSubjectRequired
	}
	return claims, nil
}
