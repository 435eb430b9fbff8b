package auth

import (
	"errors"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid claims")
)

// Manager issues HS256 tokens for profiles and validates incoming tokens.
// When a JWKS is attached, RS256 tokens from the external identity provider
// are accepted instead of locally signed ones.
type Manager struct {
	secret []byte
	expiry time.Duration
	jwks   *keyfunc.JWKS
	parser *jwt.Parser
}

func NewManager(secret string, expiry time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		expiry: expiry,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

// WithJWKS switches validation to keys fetched from a JWKS endpoint.
func (m *Manager) WithJWKS(jwks *keyfunc.JWKS) *Manager {
	m.jwks = jwks
	m.parser = jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}))
	return m
}

func (m *Manager) GenerateToken(profileID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   profileID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken validates tokenStr and returns the profile ID in its subject.
func (m *Manager) ParseToken(tokenStr string) (uuid.UUID, error) {
	token, err := m.parser.Parse(tokenStr, m.keyFunc)
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidClaims
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return uuid.Nil, ErrInvalidClaims
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidClaims
	}
	return id, nil
}

func (m *Manager) keyFunc(token *jwt.Token) (interface{}, error) {
	if m.jwks != nil {
		return m.jwks.Keyfunc(token)
	}
	return m.secret, nil
}
