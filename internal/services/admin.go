package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const adminTokenTTL = 12 * time.Hour

// Authorization errors. ErrSecretNotConfigured is deliberately distinct
// from ErrBadSecret so operators can tell a misconfigured deployment from
// a wrong secret; both fail closed.
var (
	ErrSecretNotConfigured = errors.New("admin secret not configured")
	ErrBadSecret           = errors.New("invalid admin secret")
)

// AdminService is the authorization gate in front of every administrative
// mutation: a shared-secret check, plus short-lived session tokens so the
// admin console does not have to resend the raw secret on every request.
type AdminService struct {
	secret string
}

// NewAdminService creates a new admin service. An empty secret is allowed
// at construction but every authorization attempt against it fails.
func NewAdminService(secret string) *AdminService {
	return &AdminService{secret: secret}
}

// Authorize compares the supplied secret against the configured one in
// constant time. Fails closed when no secret is configured.
func (s *AdminService) Authorize(supplied string) error {
	if s.secret == "" {
		return ErrSecretNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.secret)) != 1 {
		return ErrBadSecret
	}
	return nil
}

// IssueToken exchanges a valid shared secret for a session token signed
// with that same secret.
func (s *AdminService) IssueToken(supplied string) (string, error) {
	if err := s.Authorize(supplied); err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"role": "admin",
		"exp":  time.Now().Add(adminTokenTTL).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks an admin session token. Fails closed when no
// secret is configured.
func (s *AdminService) ValidateToken(tokenString string) error {
	if s.secret == "" {
		return ErrSecretNotConfigured
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["role"] != "admin" {
		return errors.New("invalid token claims")
	}
	return nil
}
