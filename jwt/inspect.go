package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// ErrNotAToken is returned when the value is not a structurally valid JWT.
// Opaque tokens hit this path and callers must treat them as inspectable
// but unknown, never as invalid.
var ErrNotAToken = errors.New("not a JWT")

// TokenInfo carries the unverified registered claims of a session token.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Inspect parses the token without signature verification and returns its
// registered claims. Claims that are absent stay zero-valued.
func Inspect(token string) (*TokenInfo, error) {
	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAToken, err)
	}

	info := &TokenInfo{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	return info, nil
}

// ExpiredWithin reports whether the token is expired at now, or will be
// within skew. Tokens without an exp claim never report expired.
func (ti *TokenInfo) ExpiredWithin(now time.Time, skew time.Duration) bool {
	if ti == nil || ti.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(skew).Before(ti.ExpiresAt)
}
