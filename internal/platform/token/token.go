// Package token issues and verifies the signed session tokens that gate every
// protected operation. Tokens are stateless bearer credentials: nothing is
// persisted server-side and there is no revocation list, so a token stays
// valid until its expiry.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL is the fixed validity window of every issued token.
const TTL = 7 * 24 * time.Hour

var (
	// ErrExpired means the signature checked out but the token is past its
	// expiry. Expiry is compared strictly against the current time with no
	// leeway.
	ErrExpired = errors.New("token expired")
	// ErrMalformed covers anything that is not a well-formed signed token.
	ErrMalformed = errors.New("token malformed")
	// ErrSignatureInvalid means the token was tampered with or signed with a
	// different key.
	ErrSignatureInvalid = errors.New("token signature invalid")
)

// Authority signs and verifies session tokens with a process-wide symmetric
// key.
type Authority struct {
	secret []byte
	now    func() time.Time
}

func NewAuthority(secret []byte) (*Authority, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token authority requires a signing secret")
	}
	return &Authority{secret: secret, now: time.Now}, nil
}

// Issue produces a signed token for the given subject (the principal's login
// identifier). The token carries sub, iat and exp claims and expires TTL
// after issuance.
func (a *Authority) Issue(subject string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("token subject must not be empty")
	}
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature and expiry and returns its subject.
// Signature integrity is checked before expiry; any parse anomaly fails
// closed as ErrMalformed.
func (a *Authority) Verify(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrSignatureInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpired
		default:
			return "", ErrMalformed
		}
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrMalformed
	}
	return claims.Subject, nil
}
