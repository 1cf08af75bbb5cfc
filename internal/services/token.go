package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/perkpoint/loyalty-backend/internal/errs"
)

const accessTokenExpiry = 24 * time.Hour

// TokenClaims is the access token payload: who the subject is, what
// they may do, and which company/account context the scopes apply to.
type TokenClaims struct {
	Scopes    []string `json:"scopes"`
	CompanyID uint     `json:"company_id,omitempty"`
	AccountID uint     `json:"account_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies access tokens. Stateless; the
// signing key is process-wide configuration loaded once at startup.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a new token service
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

// Issue signs an access token for the subject. companyID/accountID are
// optional multi-tenant context; zero means absent.
func (s *TokenService) Issue(subject string, scopes []string, companyID, accountID uint) (string, error) {
	now := s.now()
	claims := &TokenClaims{
		Scopes:    scopes,
		CompanyID: companyID,
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, expiry included.
func (s *TokenService) Verify(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return nil, errs.Wrap(errs.KindUnauthorized, "invalid token", err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, errs.Unauthorized("invalid token")
	}
	return claims, nil
}

// HasScope reports whether the claims carry the given scope.
func (c *TokenClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
