package auth

import (
	"fmt"
	"time"

	"github.com/modaliv/modaliv-backend/internal/config"
	"github.com/modaliv/modaliv-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTSigner issues and validates HS256 access tokens. Stateless.
type JWTSigner struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewJWTSigner(cfg *config.Config) *JWTSigner {
	return &JWTSigner{
		secret:   cfg.JWTSecret,
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		ttl:      cfg.AccessTokenTTL,
		now:      time.Now,
	}
}

// Issue signs an access token for a user. Every issuance carries a fresh jti
// so tokens never collide across issuances.
func (s *JWTSigner) Issue(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &models.AccessTokenClaims{
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate verifies the signature, issuer and audience of an access token,
// and its expiry when checkExpiry is set. Any parse or verification failure
// maps to ErrInvalidAccessToken.
func (s *JWTSigner) Validate(tokenString string, checkExpiry bool) (*models.TokenInfo, error) {
	claims := &models.AccessTokenClaims{}
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}

	opts := []jwt.ParserOption{jwt.WithIssuer(s.issuer), jwt.WithAudience(s.audience)}
	if !checkExpiry {
		// Claims validation is skipped wholesale, so issuer and audience are
		// re-checked by hand below.
		opts = []jwt.ParserOption{jwt.WithoutClaimsValidation()}
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidAccessToken
	}
	if !checkExpiry {
		if claims.Issuer != s.issuer || !containsAudience(claims.Audience, s.audience) {
			return nil, ErrInvalidAccessToken
		}
	}

	info := &models.TokenInfo{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Username: claims.Username,
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// RemainingLifetime reads the expiry claim without verifying the signature.
// An already-expired token reports zero, never a negative duration.
func (s *JWTSigner) RemainingLifetime(tokenString string) (time.Duration, error) {
	claims := &models.AccessTokenClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return 0, ErrInvalidAccessToken
	}
	if claims.ExpiresAt == nil {
		return 0, ErrNoExpiryClaim
	}
	remaining := claims.ExpiresAt.Time.Sub(s.now())
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

func containsAudience(audience jwt.ClaimStrings, want string) bool {
	for _, aud := range audience {
		if aud == want {
			return true
		}
	}
	return false
}
