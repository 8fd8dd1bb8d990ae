package auth

import "branchvid/internal/domain/models"

// JWTVerifier validates bearer tokens and returns their claims.
// The middleware depends only on this interface.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns domain.ErrUnauthorized if the token is invalid, expired, or badly signed.
	VerifyToken(tokenString string) (*models.Claims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
