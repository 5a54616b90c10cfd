package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

const issuer = "streakly"

// JWTManager signs and checks HS256 operator tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

// Claims carries the operator subject plus a fixed scope.
type Claims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// NewJWTManager returns a manager that issues tokens valid for ttl.
func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), ttl: ttl}
}

// TokenDuration returns how long generated tokens remain valid.
func (m *JWTManager) TokenDuration() time.Duration {
	return m.ttl
}

// Generate issues a signed token for p.
func (m *JWTManager) Generate(p *Principal) (string, error) {
	issued := jwt.NewNumericDate(time.Now())
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Scope: "relay",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			Issuer:    issuer,
			IssuedAt:  issued,
			NotBefore: issued,
			ExpiresAt: jwt.NewNumericDate(issued.Add(m.ttl)),
		},
	}).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate checks the signature, issuer and expiry of raw and returns its claims.
func (m *JWTManager) Validate(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
