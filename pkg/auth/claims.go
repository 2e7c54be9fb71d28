package auth

import "github.com/golang-jwt/jwt/v5"

// Identity is what the storefront learns about a customer from their token.
type Identity struct {
	CustomerID string
	Email      string
	Name       string
}

// CustomerClaims is the token issued by the hosted identity provider. The
// subject is the customer id.
type CustomerClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts the verified claims.
func (c CustomerClaims) Identity() Identity {
	return Identity{
		CustomerID: c.Subject,
		Email:      c.Email,
		Name:       c.Name,
	}
}
