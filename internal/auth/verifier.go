// Package auth verifies bearer tokens and turns their claims into the role
// context the validation hooks consume. The registry never authenticates
// credentials itself; identity always arrives as a token minted elsewhere
// (Keycloak in production, GenerateAccessToken in tests and dev).
package auth

import "context"

// Token is a minimal interface for a verified token that can expose claims.
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on.
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}
