package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the JWT payload issued by the identity provider.
type Claims struct {
	jwt.RegisteredClaims        // sub, iss, aud, exp, iat
	Email                string `json:"email"`
	Name                 string `json:"name"`
	Picture              string `json:"picture"`
	Role                 string `json:"role"` // "anon" tokens are rejected
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *Claims) GetUserID() string {
	return c.Subject
}
