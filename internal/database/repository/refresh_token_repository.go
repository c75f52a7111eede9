package repository

import (
	"context"
	"errors"
	"time"

	"github.com/modaliv/modaliv-backend/internal/models"
	"github.com/modaliv/modaliv-backend/internal/services/auth"

	"gorm.io/gorm"
)

// RefreshTokenRepository is the gorm-backed auth.RefreshTokenStore.
type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// FindByToken retrieves a refresh token by token string. Returns nil without
// error when no record exists.
func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&refreshToken).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &refreshToken, nil
}

// ListActiveByUser retrieves all non-revoked, non-expired tokens for a user.
func (r *RefreshTokenRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]models.RefreshToken, error) {
	var refreshTokens []models.RefreshToken
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, now).
		Find(&refreshTokens).Error
	return refreshTokens, err
}

// CountActiveByUser counts the active tokens of a user.
func (r *RefreshTokenRepository) CountActiveByUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, now).
		Count(&count).Error
	return count, err
}

// Add persists a new refresh token
func (r *RefreshTokenRepository) Add(ctx context.Context, token *models.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// Update saves a modified refresh token
func (r *RefreshTokenRepository) Update(ctx context.Context, token *models.RefreshToken) error {
	return r.db.WithContext(ctx).Save(token).Error
}

// UpdateMany saves a batch of modified refresh tokens in one transaction.
func (r *RefreshTokenRepository) UpdateMany(ctx context.Context, tokens []models.RefreshToken) error {
	if len(tokens) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range tokens {
			if err := tx.Save(&tokens[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveStale hard-deletes tokens expired before expiredBefore or revoked
// before revokedBefore.
func (r *RefreshTokenRepository) RemoveStale(ctx context.Context, expiredBefore, revokedBefore time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR (revoked = ? AND revoked_at < ?)", expiredBefore, true, revokedBefore).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}

// InTransaction runs fn against a repository bound to a database transaction.
func (r *RefreshTokenRepository) InTransaction(ctx context.Context, fn func(auth.RefreshTokenStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRefreshTokenRepository(tx))
	})
}
