package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// issuer distinguishes our tokens from any other app sharing a secret by
// accident.
const issuer = "loyalty-club"

// staffSubject is the subject claim for staff sessions. There is one staff
// identity per deployment (the venue), so the token carries a role rather
// than a user id.
const staffSubject = "staff"

// TokenService issues and validates the HS256 JWTs used for staff sessions.
//
// The original client kept a bare "isAdmin" flag in session storage; a signed
// token gives the same single-role session without trusting the client.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production:
// JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// GenerateStaff creates a signed staff session token valid for d.
func (s *TokenService) GenerateStaff(d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staffSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// ValidateStaff parses and verifies a token string and confirms it is a staff
// session.
//
// jwt.WithValidMethods pins HS256 — without it an attacker could try an
// algorithm-confusion token ("alg":"none").
func (s *TokenService) ValidateStaff(tokenStr string) error {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("auth: token expired")
		}
		return fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject != staffSubject {
		return fmt.Errorf("auth: token is not a staff session")
	}

	return nil
}
