package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// SessionClaims are the claims carried by a session cookie.
type SessionClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// StateClaims are the claims of the short-lived state token used in the
// OAuth login round-trip. Signing the state removes the need for any
// server-side state storage.
type StateClaims struct {
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies the service's HS256 tokens.
type TokenManager struct {
	secret     []byte
	sessionTTL time.Duration
	stateTTL   time.Duration
}

// NewTokenManager creates a TokenManager over the configured secret key
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		sessionTTL: 12 * time.Hour,
		stateTTL:   10 * time.Minute,
	}
}

// IssueSession creates a session token for a signed-in user. The returned
// jti identifies the session in the session store.
func (m *TokenManager) IssueSession(userID uuid.UUID, email string) (token string, jti string, err error) {
	jti = uuid.New().String()
	now := time.Now()
	claims := SessionClaims{
		UserID: userID.String(),
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    "campus-approvals",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.sessionTTL)),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, jti, nil
}

// ParseSession verifies a session token and returns its claims
func (m *TokenManager) ParseSession(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueState creates the signed state parameter for a login redirect
func (m *TokenManager) IssueState() (string, error) {
	now := time.Now()
	claims := StateClaims{
		Nonce: uuid.New().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "campus-approvals",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.stateTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state token: %w", err)
	}
	return token, nil
}

// VerifyState checks the state parameter returned by the identity provider
func (m *TokenManager) VerifyState(state string) error {
	parsed, err := jwt.ParseWithClaims(state, &StateClaims{}, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}

func (m *TokenManager) keyFunc(token *jwt.Token) (interface{}, error) {
	return m.secret, nil
}
