package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers bad signatures and malformed claims.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken means the signature checked out but the token is past
	// its expiry. There is no server-side revocation; expiry is the only
	// way a credential dies.
	ErrExpiredToken = errors.New("token expired")
)

// TokenTTL is the fixed session credential lifetime.
const TokenTTL = 10 * time.Hour

// TokenCodec issues and verifies stateless session credentials. Tokens are
// HS256-signed JWTs carrying {sub: handle, iat, exp} and are never stored
// server-side: possession of a token with a valid signature and unexpired
// claims is the whole session.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec creates a codec around the process-wide signing key. The
// key is loaded once at startup and must never be logged or serialized.
func NewTokenCodec(secret []byte) *TokenCodec {
	return &TokenCodec{secret: secret, ttl: TokenTTL}
}

// Issue creates a signed credential for the given handle. Timestamps have
// second granularity; no clock-skew compensation is applied.
func (tc *TokenCodec) Issue(handle string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(tc.ttl)

	claims := jwt.MapClaims{
		"sub": handle,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tc.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify validates the signature and claims and returns the subject handle.
// Rejections come back as ErrExpiredToken or ErrInvalidToken; Verify never
// panics on malformed input.
func (tc *TokenCodec) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tc.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		// Expiry takes precedence over signature validity: a stale token
		// always reads as "re-authenticate", never as tampering.
		if expiredUnverified(tokenString) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	handle, ok := claims["sub"].(string)
	if !ok || handle == "" {
		return "", ErrInvalidToken
	}

	return handle, nil
}

// expiredUnverified reports whether a token's exp claim has passed without
// checking its signature.
func expiredUnverified(tokenString string) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(time.Now())
}
