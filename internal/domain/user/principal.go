package user

import "context"

// Principal is the authenticated caller resolved from a bearer token.
type Principal struct {
	UserID  string
	Email   string
	Roles   []string
	IsAdmin bool
}

// Verifier resolves bearer tokens issued by the account service.
type Verifier interface {
	VerifyAccessToken(ctx context.Context, token string) (Principal, error)
}
