// Package jwt provides access token generation and validation.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
)

var (
	// ErrInvalidToken is returned when the token fails validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// Claims carries the authenticated principal. Role and tenant here are
// the REAL ones; masquerade state never enters the token.
type Claims struct {
	UserID   string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID string `json:"tenant"`
	Operator bool   `json:"operator,omitempty"`

	jwt.RegisteredClaims
}

// Identity rebuilds the immutable session identity from the claims.
func (c *Claims) Identity() (session.Identity, error) {
	uid, err := shared.IDFromString(c.UserID)
	if err != nil {
		return session.Identity{}, fmt.Errorf("%w: bad user id", ErrInvalidToken)
	}
	tenantID, err := shared.IDFromString(c.TenantID)
	if err != nil {
		return session.Identity{}, fmt.Errorf("%w: bad tenant id", ErrInvalidToken)
	}
	ident, err := session.NewIdentity(uid, c.Email, role.Role(c.Role), tenantID, c.Operator)
	if err != nil {
		return session.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return ident, nil
}

// Config holds token generation settings.
type Config struct {
	Secret   string
	Issuer   string
	Duration time.Duration
}

// Manager issues and validates access tokens.
type Manager struct {
	secret   []byte
	issuer   string
	duration time.Duration
}

// NewManager creates a token manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret is required")
	}
	duration := cfg.Duration
	if duration <= 0 {
		duration = 15 * time.Minute
	}
	return &Manager{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		duration: duration,
	}, nil
}

// Generate issues a signed access token for the identity.
func (m *Manager) Generate(ident session.Identity) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(m.duration)

	claims := Claims{
		UserID:   ident.UID().String(),
		Email:    ident.Email(),
		Role:     string(ident.RealRole()),
		TenantID: ident.RealTenantID().String(),
		Operator: ident.IsOperator(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   ident.UID().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate parses and verifies a token string.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
