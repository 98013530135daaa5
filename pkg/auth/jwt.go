// pkg/auth/jwt.go
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = errors.New("token has expired")
	ErrInvalidClaims     = errors.New("invalid token claims")
	ErrInvalidSigningKey = errors.New("invalid signing key")
)

const tokenTypeService = "service"

// TokenManager issues and validates the short-lived service tokens the
// web front-end presents to the task backend.
type TokenManager struct {
	secret   []byte
	duration time.Duration
	issuer   string
}

// NewTokenManager creates a new token manager
func NewTokenManager(secret string, duration time.Duration) *TokenManager {
	return &TokenManager{
		secret:   []byte(secret),
		duration: duration,
		issuer:   "taskdesk",
	}
}

// ServiceClaims represents the custom JWT claims
type ServiceClaims struct {
	Service string `json:"service"`
	Type    string `json:"type"`
	jwt.RegisteredClaims
}

// IssueServiceToken signs a token for the named calling service.
func (tm *TokenManager) IssueServiceToken(service string) (string, time.Time, error) {
	if len(tm.secret) == 0 {
		return "", time.Time{}, ErrInvalidSigningKey
	}

	now := time.Now()
	expiresAt := now.Add(tm.duration)

	claims := ServiceClaims{
		Service: service,
		Type:    tokenTypeService,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    tm.issuer,
			Subject:   service,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateServiceToken validates a service token and returns the claims
func (tm *TokenManager) ValidateServiceToken(tokenString string) (*ServiceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ServiceClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	}, jwt.WithIssuer(tm.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*ServiceClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Type != tokenTypeService {
		return nil, fmt.Errorf("invalid token type: expected %s, got %s", tokenTypeService, claims.Type)
	}

	return claims, nil
}

// ExtractTokenFromHeader extracts the token from the Authorization header
func ExtractTokenFromHeader(authHeader string) (string, error) {
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return "", errors.New("invalid authorization header format")
	}
	token := strings.TrimSpace(authHeader[7:])
	if token == "" {
		return "", errors.New("empty bearer token")
	}
	return token, nil
}

// TokenSource hands out a cached service token and renews it shortly
// before it expires.
type TokenSource struct {
	manager *TokenManager
	service string
	leeway  time.Duration

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenSource creates a token source for the named service.
func NewTokenSource(manager *TokenManager, service string) *TokenSource {
	return &TokenSource{
		manager: manager,
		service: service,
		leeway:  30 * time.Second,
	}
}

// Token returns a valid bearer token.
func (s *TokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Until(s.expiresAt) > s.leeway {
		return s.token, nil
	}

	token, expiresAt, err := s.manager.IssueServiceToken(s.service)
	if err != nil {
		return "", fmt.Errorf("issue service token: %w", err)
	}
	s.token = token
	s.expiresAt = expiresAt
	return token, nil
}
