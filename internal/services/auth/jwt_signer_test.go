package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/modaliv/modaliv-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

func newTestSigner(t *testing.T) *JWTSigner {
	t.Helper()
	return NewJWTSigner(testConfig())
}

func testUser() *models.User {
	return &models.User{ID: "user-1", Email: "ada@example.com", Username: "ada"}
}

func TestSignerRoundTrip(t *testing.T) {
	signer := newTestSigner(t)

	token, expiresAt, err := signer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatal("expiry must be in the future")
	}

	info, err := signer.Validate(token, true)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if info.UserID != "user-1" || info.Email != "ada@example.com" || info.Username != "ada" {
		t.Fatalf("claims do not round-trip: %+v", info)
	}
	if info.TokenID == "" {
		t.Fatal("token id claim must be set")
	}
}

func TestSignerFreshTokenIDPerIssuance(t *testing.T) {
	signer := newTestSigner(t)
	user := testUser()

	first, _, err := signer.Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	second, _, err := signer.Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	firstInfo, _ := signer.Validate(first, true)
	secondInfo, _ := signer.Validate(second, true)
	if firstInfo.TokenID == secondInfo.TokenID {
		t.Fatal("each issuance must carry a distinct token id")
	}
}

func TestSignerRejectsWrongSecret(t *testing.T) {
	signer := newTestSigner(t)
	token, _, err := signer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	other := NewJWTSigner(testConfig())
	other.secret = []byte("a-different-secret")
	if _, err := other.Validate(token, true); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected ErrInvalidAccessToken, got %v", err)
	}
}

func TestSignerRejectsWrongIssuerAndAudience(t *testing.T) {
	cfg := testConfig()
	cfg.JWTIssuer = "someone-else"
	foreign := NewJWTSigner(cfg)
	token, _, err := foreign.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	signer := newTestSigner(t)
	if _, err := signer.Validate(token, true); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("wrong issuer with expiry check: expected ErrInvalidAccessToken, got %v", err)
	}
	// Issuer and audience hold even when expiry checking is off.
	if _, err := signer.Validate(token, false); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("wrong issuer without expiry check: expected ErrInvalidAccessToken, got %v", err)
	}
}

func TestSignerExpiryToggle(t *testing.T) {
	signer := newTestSigner(t)
	signer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	expired, _, err := signer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	signer.now = time.Now

	if _, err := signer.Validate(expired, true); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expired token with expiry check: expected ErrInvalidAccessToken, got %v", err)
	}
	info, err := signer.Validate(expired, false)
	if err != nil {
		t.Fatalf("expired token without expiry check must still verify: %v", err)
	}
	if info.UserID != "user-1" {
		t.Fatalf("claims must survive expiry-free validation: %+v", info)
	}
}

func TestSignerRejectsUnexpectedAlgorithm(t *testing.T) {
	signer := newTestSigner(t)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: "user-1",
		Issuer:  "modaliv-test",
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build none-alg token: %v", err)
	}

	if _, err := signer.Validate(token, true); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected ErrInvalidAccessToken, got %v", err)
	}
}

func TestRemainingLifetime(t *testing.T) {
	signer := newTestSigner(t)
	token, _, err := signer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	remaining, err := signer.RemainingLifetime(token)
	if err != nil {
		t.Fatalf("RemainingLifetime failed: %v", err)
	}
	if remaining <= 0 || remaining > 15*time.Minute {
		t.Fatalf("remaining lifetime out of range: %v", remaining)
	}
}

func TestRemainingLifetimeFloorsAtZero(t *testing.T) {
	signer := newTestSigner(t)
	signer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := signer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	signer.now = time.Now

	remaining, err := signer.RemainingLifetime(token)
	if err != nil {
		t.Fatalf("RemainingLifetime failed: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expired token must report zero, got %v", remaining)
	}
}

func TestRemainingLifetimeWithoutExpiryClaim(t *testing.T) {
	signer := newTestSigner(t)

	bare := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1"})
	token, err := bare.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to build bare token: %v", err)
	}

	if _, err := signer.RemainingLifetime(token); !errors.Is(err, ErrNoExpiryClaim) {
		t.Fatalf("expected ErrNoExpiryClaim, got %v", err)
	}
}
