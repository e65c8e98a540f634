package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const scopeClaim = "scope"

// ScopeAdmin marks tokens allowed to mutate catalog configuration.
const ScopeAdmin = "admin"

var (
	// ErrInvalidToken is returned when a token fails signature or claim checks.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrInsufficientScope is returned when a valid token lacks the required scope.
	ErrInsufficientScope = errors.New("auth: insufficient scope")
)

// TokenIssuer mints HS256 admin tokens for the catalog API.
type TokenIssuer struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Issue builds and signs a token with the admin scope, valid from now.
func (i TokenIssuer) Issue(now time.Time, subject string) (string, error) {
	ttl := i.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	tok, err := jwt.NewBuilder().
		Issuer(i.Issuer).
		Audience([]string{i.Audience}).
		Subject(subject).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Claim(scopeClaim, ScopeAdmin).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, i.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return string(signed), nil
}

// TokenValidator verifies signature, issuer, audience, expiry, and scope.
type TokenValidator struct {
	Secret    []byte
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	// Now overrides the validation clock, nil means time.Now.
	Now func() time.Time
}

// ValidateAdmin parses the serialized token and ensures it carries the
// admin scope. It returns the token subject on success.
func (v TokenValidator) ValidateAdmin(serialized string) (string, error) {
	options := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, v.Secret),
		jwt.WithValidate(true),
	}
	if v.Now != nil {
		now := v.Now()
		options = append(options, jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })))
	}
	if v.ClockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(v.ClockSkew))
	}
	if v.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		options = append(options, jwt.WithAudience(v.Audience))
	}

	tok, err := jwt.ParseString(serialized, options...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	scope, ok := tok.Get(scopeClaim)
	if !ok {
		return "", ErrInsufficientScope
	}
	if s, ok := scope.(string); !ok || s != ScopeAdmin {
		return "", ErrInsufficientScope
	}
	return tok.Subject(), nil
}
