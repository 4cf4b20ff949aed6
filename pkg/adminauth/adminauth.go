// Package adminauth stands in for the identity provider the spec leaves
// out of scope (§1: "The identity provider used by the token-minting admin
// page" is an external collaborator). It gates /_fs/token and feeds the
// middleware auth gate's "logged-in principal" concept with a single local
// admin credential plus a JWT session, the same shape as the teacher's
// bcrypt + JWT login.
package adminauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/fileset/fileset/pkg/config"
)

var ErrInvalidCredentials = errors.New("adminauth: invalid credentials")

// Claims carries the authenticated principal's email, used by the auth
// gate's AUTHORIZED_USERS/AUTHORIZED_ORGS check.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Service struct {
	cfg *config.Config
}

func NewService(cfg *config.Config) *Service {
	return &Service{cfg: cfg}
}

// Login verifies password against the configured admin bcrypt hash and
// issues a session JWT carrying the configured admin email.
func (s *Service) Login(password string) (string, error) {
	if s.cfg.AdminPasswordHash == "" {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := &Claims{
		Email: s.cfg.AdminEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.cfg.AdminEmail,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// VerifySession parses and validates a session token, returning the claims
// it carries.
func (s *Service) VerifySession(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("adminauth: unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

// HashPassword is a helper for operators provisioning ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(b), err
}
