package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the HS256 token claims: the subject carries the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type hmacVerifier struct {
	key    []byte
	issuer string
	leeway time.Duration
}

// NewHMACVerifier creates a Verifier for HS256 tokens signed with key.
// An empty issuer skips the issuer check.
func NewHMACVerifier(key []byte, issuer string, leeway time.Duration) (Verifier, error) {
	if len(key) == 0 {
		return nil, errors.New("hmac key required")
	}
	return &hmacVerifier{
		key:    key,
		issuer: issuer,
		leeway: leeway,
	}, nil
}

func (v *hmacVerifier) Verify(_ context.Context, token string) (Caller, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return newCaller(claims.Subject, claims.Role)
}
