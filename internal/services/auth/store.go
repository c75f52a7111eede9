package auth

import (
	"context"
	"time"

	"github.com/modaliv/modaliv-backend/internal/models"
)

// RefreshTokenStore is the persistence collaborator of the token lifecycle
// service. Implementations own the records; the service never holds a token
// past the scope of one operation.
type RefreshTokenStore interface {
	// FindByToken returns the record for an exact token string, or nil when
	// no record exists.
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]models.RefreshToken, error)
	CountActiveByUser(ctx context.Context, userID string, now time.Time) (int64, error)
	Add(ctx context.Context, token *models.RefreshToken) error
	Update(ctx context.Context, token *models.RefreshToken) error
	UpdateMany(ctx context.Context, tokens []models.RefreshToken) error
	// RemoveStale hard-deletes records expired before expiredBefore or
	// revoked before revokedBefore, returning the number deleted.
	RemoveStale(ctx context.Context, expiredBefore, revokedBefore time.Time) (int64, error)
	// InTransaction runs fn against a store view whose writes commit or roll
	// back as one unit.
	InTransaction(ctx context.Context, fn func(RefreshTokenStore) error) error
}

// UserStore is the account collaborator of the auth services.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, page, pageSize int, search string) ([]models.User, int64, error)
}
