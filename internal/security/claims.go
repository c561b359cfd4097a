package security

import "time"

type TokenClaims struct {
	UserID  string
	Role    string
	Exp     time.Time
	Issuer  string
	Subject string
}

type AccessTokenVerifier interface {
	VerifyAccessToken(token string) (TokenClaims, error)
}
