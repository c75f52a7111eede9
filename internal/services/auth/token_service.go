package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"regexp"
	"time"

	"github.com/modaliv/modaliv-backend/internal/config"
	"github.com/modaliv/modaliv-backend/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	tokenCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// RevocationReasonRotated is recorded when rotation revokes the old token.
	RevocationReasonRotated = "Rotated"
)

var tokenFormat = regexp.MustCompile(fmt.Sprintf("^[A-Za-z0-9]{%d}$", models.RefreshTokenLength))

// TokenService drives the refresh-token lifecycle: Active is the only live
// state, terminating into Revoked, Expired or Replaced&Revoked. No transition
// leaves a terminal state.
type TokenService struct {
	tokens RefreshTokenStore
	users  UserStore
	cfg    *config.Config
	now    func() time.Time
}

func NewTokenService(tokens RefreshTokenStore, users UserStore, cfg *config.Config) *TokenService {
	return &TokenService{
		tokens: tokens,
		users:  users,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Issue creates and persists a fresh refresh token for a user, enforcing the
// per-user active-token cap. At or over the cap it fails with
// ErrSessionLimitExceeded; callers must revoke a session before retrying.
func (s *TokenService) Issue(ctx context.Context, userID, sourceIP string, rememberMe, systemUser bool) (*models.RefreshToken, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}
	if sourceIP == "" {
		return nil, fmt.Errorf("%w: source ip is required", ErrInvalidArgument)
	}
	count, err := s.tokens.CountActiveByUser(ctx, userID, s.now())
	if err != nil {
		return nil, s.failure("count active tokens", err, logrus.Fields{"user_id": userID, "ip": sourceIP})
	}
	if count >= int64(s.sessionLimit(systemUser)) {
		return nil, ErrSessionLimitExceeded
	}

	return s.issueRecord(ctx, s.tokens, userID, sourceIP, rememberMe)
}

// issueRecord persists a fresh token without a cap check; callers enforce the
// cap appropriate to their operation.
func (s *TokenService) issueRecord(ctx context.Context, store RefreshTokenStore, userID, sourceIP string, rememberMe bool) (*models.RefreshToken, error) {
	now := s.now()

	tokenString, err := generateTokenString()
	if err != nil {
		return nil, s.failure("generate refresh token", err, logrus.Fields{"user_id": userID})
	}

	record := &models.RefreshToken{
		Token:       tokenString,
		UserID:      userID,
		ExpiresAt:   now.Add(s.lifetime(rememberMe)),
		CreatedByIP: sourceIP,
	}
	if err := store.Add(ctx, record); err != nil {
		return nil, s.failure("store refresh token", err, logrus.Fields{"user_id": userID, "ip": sourceIP})
	}
	return record, nil
}

// Validate checks a refresh token and returns its owner and record. Malformed
// input is rejected before any lookup; not-found, revoked and expired are
// surfaced as distinct failures. Validate never mutates.
func (s *TokenService) Validate(ctx context.Context, token string) (*models.User, *models.RefreshToken, error) {
	record, err := s.validateRecord(ctx, s.tokens, token)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, nil, s.failure("load token owner", err, logrus.Fields{"user_id": record.UserID})
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}
	return user, record, nil
}

func (s *TokenService) validateRecord(ctx context.Context, store RefreshTokenStore, token string) (*models.RefreshToken, error) {
	if !tokenFormat.MatchString(token) {
		return nil, ErrTokenMalformed
	}

	record, err := store.FindByToken(ctx, token)
	if err != nil {
		return nil, s.failure("look up refresh token", err, nil)
	}
	if record == nil {
		return nil, ErrTokenNotFound
	}
	if record.Revoked {
		return nil, ErrTokenRevoked
	}
	if record.IsExpired(s.now()) {
		return nil, ErrTokenExpired
	}
	return record, nil
}

// Rotate replaces a refresh token with a fresh one in a single transaction:
// the old record is revoked with its replacement reference pointing at the new
// token, and both writes commit or roll back together. A concurrent rotation
// of the same token serializes on the transaction and sees it already revoked.
func (s *TokenService) Rotate(ctx context.Context, oldToken, sourceIP string, rememberMe, systemUser bool) (*models.RefreshToken, error) {
	if sourceIP == "" {
		return nil, fmt.Errorf("%w: source ip is required", ErrInvalidArgument)
	}

	var newRecord *models.RefreshToken
	err := s.tokens.InTransaction(ctx, func(tx RefreshTokenStore) error {
		old, err := s.validateRecord(ctx, tx, oldToken)
		if err != nil {
			return err
		}

		now := s.now()
		// The rotated token frees its own slot, so the cap only trips when
		// the user is already over it.
		count, err := tx.CountActiveByUser(ctx, old.UserID, now)
		if err != nil {
			return s.failure("count active tokens", err, logrus.Fields{"user_id": old.UserID})
		}
		if count > int64(s.sessionLimit(systemUser)) {
			return ErrSessionLimitExceeded
		}

		fresh, err := s.issueRecord(ctx, tx, old.UserID, sourceIP, rememberMe)
		if err != nil {
			return err
		}

		revokedAt := now
		old.Revoked = true
		old.RevokedAt = &revokedAt
		old.RevokedByIP = sourceIP
		old.ReplacedByToken = fresh.Token
		old.RevocationReason = RevocationReasonRotated
		if err := tx.Update(ctx, old); err != nil {
			return s.failure("revoke rotated token", err, logrus.Fields{"user_id": old.UserID, "ip": sourceIP})
		}

		newRecord = fresh
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		logrus.WithError(err).WithField("ip", sourceIP).Error("Token rotation rolled back")
		return nil, ErrOperationFailed
	}
	return newRecord, nil
}

// Revoke marks a token revoked. It is idempotent: revoking an already-revoked
// token reports RevokeStatusAlreadyRevoked without touching the record.
func (s *TokenService) Revoke(ctx context.Context, token, sourceIP, reason string) (RevokeStatus, error) {
	if !tokenFormat.MatchString(token) {
		return 0, ErrTokenMalformed
	}

	record, err := s.tokens.FindByToken(ctx, token)
	if err != nil {
		return 0, s.failure("look up refresh token", err, logrus.Fields{"ip": sourceIP})
	}
	if record == nil {
		return 0, ErrTokenNotFound
	}
	if record.Revoked {
		return RevokeStatusAlreadyRevoked, nil
	}

	revokedAt := s.now()
	record.Revoked = true
	record.RevokedAt = &revokedAt
	record.RevokedByIP = sourceIP
	record.RevocationReason = reason
	if err := s.tokens.Update(ctx, record); err != nil {
		return 0, s.failure("revoke refresh token", err, logrus.Fields{"user_id": record.UserID, "ip": sourceIP})
	}
	return RevokeStatusRevoked, nil
}

// RevokeAllForUser revokes every active token for a user except the optional
// exceptToken ("log out everywhere but here"). Returns the count revoked; zero
// active tokens is not an error.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID, sourceIP, reason, exceptToken string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}

	now := s.now()
	active, err := s.tokens.ListActiveByUser(ctx, userID, now)
	if err != nil {
		return 0, s.failure("list active tokens", err, logrus.Fields{"user_id": userID, "ip": sourceIP})
	}

	revoked := make([]models.RefreshToken, 0, len(active))
	for _, record := range active {
		if exceptToken != "" && record.Token == exceptToken {
			continue
		}
		revokedAt := now
		record.Revoked = true
		record.RevokedAt = &revokedAt
		record.RevokedByIP = sourceIP
		record.RevocationReason = reason
		revoked = append(revoked, record)
	}
	if len(revoked) == 0 {
		return 0, nil
	}

	if err := s.tokens.UpdateMany(ctx, revoked); err != nil {
		return 0, s.failure("revoke user tokens", err, logrus.Fields{"user_id": userID, "ip": sourceIP})
	}
	return len(revoked), nil
}

// Cleanup permanently deletes tokens that have been expired or revoked for
// longer than the retention window. This is the only hard-delete path.
func (s *TokenService) Cleanup(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.TokenRetention)
	removed, err := s.tokens.RemoveStale(ctx, cutoff, cutoff)
	if err != nil {
		return 0, s.failure("cleanup stale tokens", err, nil)
	}
	return removed, nil
}

func (s *TokenService) sessionLimit(systemUser bool) int {
	if systemUser {
		return s.cfg.MaxTokensSystemUser
	}
	return s.cfg.MaxTokensPerUser
}

func (s *TokenService) lifetime(rememberMe bool) time.Duration {
	if rememberMe {
		return s.cfg.RefreshTokenRememberTTL
	}
	return s.cfg.RefreshTokenTTL
}

// failure logs a storage-layer error with context and hides it behind the
// generic outcome so internals never leak to callers.
func (s *TokenService) failure(op string, err error, fields logrus.Fields) error {
	if isDomainError(err) {
		return err
	}
	logrus.WithFields(fields).WithError(err).Errorf("Failed to %s", op)
	return ErrOperationFailed
}

// generateTokenString produces a cryptographically random fixed-length
// alphanumeric token. Not derived from any user data.
func generateTokenString() (string, error) {
	buf := make([]byte, models.RefreshTokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	for i, b := range buf {
		buf[i] = tokenCharset[int(b)%len(tokenCharset)]
	}
	return string(buf), nil
}
