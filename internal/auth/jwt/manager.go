package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/staffdesk/staffdesk-backend/pkg/config"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
)

// Claims represents the JWT claims. The token deliberately carries only the
// credential id as its subject; everything else is resolved from the store
// on each request so revoked accounts lose access immediately.
type Claims struct {
	jwt.RegisteredClaims
}

// Manager handles JWT operations
type Manager struct {
	config *config.JWTConfig
}

// NewManager creates a new JWT manager
func NewManager(cfg *config.JWTConfig) *Manager {
	return &Manager{config: cfg}
}

// Generate signs a token for the given credential id.
func (m *Manager) Generate(userID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.config.Expiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Validate validates a token and returns the credential id it was issued for.
func (m *Manager) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.TokenInvalid()
		}
		return []byte(m.config.Secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.TokenExpired()
		}
		return "", errors.TokenInvalid()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", errors.TokenInvalid()
	}

	return claims.Subject, nil
}

// Expiry returns the configured token lifetime.
func (m *Manager) Expiry() time.Duration {
	return m.config.Expiry
}
