package auth

import (
	"context"
	"fmt"
	"os"

	"github.com/modaliv/modaliv-backend/internal/models"
	"github.com/modaliv/modaliv-backend/internal/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	reasonLoggedOut           = "Logged out"
	reasonLoggedOutEverywhere = "Logged out everywhere"
	reasonPasswordChanged     = "Password changed"
	reasonAccountDeactivated  = "Account deactivated"
)

// AuthService orchestrates the access-token signer and the refresh-token
// lifecycle service into the login/refresh/logout flows.
type AuthService struct {
	users  UserStore
	tokens *TokenService
	signer *JWTSigner
}

func NewAuthService(users UserStore, tokens *TokenService, signer *JWTSigner) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		signer: signer,
	}
}

// Register creates a new customer account.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	exists, err := s.users.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		logrus.WithError(err).Error("Failed to check existing account")
		return nil, ErrOperationFailed
	}
	if exists {
		return nil, ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Failed to hash password")
		return nil, ErrOperationFailed
	}

	user := &models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		logrus.WithError(err).Error("Failed to create user")
		return nil, ErrOperationFailed
	}
	return user, nil
}

// Login authenticates a user and issues an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest, sourceIP string) (*models.AuthResponse, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		logrus.WithError(err).WithField("ip", sourceIP).Error("Failed to load user for login")
		return nil, ErrOperationFailed
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.tokens.now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		// Log but don't fail login over a last-login timestamp.
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}

	return s.buildAuthResponse(ctx, user, sourceIP, req.RememberMe)
}

// Refresh rotates a refresh token and issues a fresh access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, sourceIP string, rememberMe bool) (*models.AuthResponse, error) {
	user, _, err := s.tokens.Validate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	rotated, err := s.tokens.Rotate(ctx, refreshToken, sourceIP, rememberMe, user.IsSystem)
	if err != nil {
		return nil, err
	}

	accessToken, expiresAt, err := s.signer.Issue(user)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to sign access token")
		return nil, ErrOperationFailed
	}

	return &models.AuthResponse{
		AccessToken:      accessToken,
		RefreshToken:     rotated.Token,
		TokenType:        "Bearer",
		ExpiresIn:        int64(expiresAt.Sub(s.tokens.now()).Seconds()),
		RefreshExpiresAt: rotated.ExpiresAt,
		User:             *user,
	}, nil
}

// Logout revokes a single session, or every session of the user when no
// refresh token is supplied.
func (s *AuthService) Logout(ctx context.Context, refreshToken, userID, sourceIP string) error {
	if refreshToken != "" {
		_, err := s.tokens.Revoke(ctx, refreshToken, sourceIP, reasonLoggedOut)
		return err
	}
	_, err := s.tokens.RevokeAllForUser(ctx, userID, sourceIP, reasonLoggedOutEverywhere, "")
	return err
}

// RevokeOtherSessions implements "log out everywhere but here".
func (s *AuthService) RevokeOtherSessions(ctx context.Context, userID, sourceIP, keepToken string) (int, error) {
	return s.tokens.RevokeAllForUser(ctx, userID, sourceIP, reasonLoggedOutEverywhere, keepToken)
}

// ChangePassword updates the user's password and revokes every session
// except the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, sourceIP, keepToken string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to load user")
		return ErrOperationFailed
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Failed to hash password")
		return ErrOperationFailed
	}
	user.PasswordHash = string(hashedPassword)
	if err := s.users.Update(ctx, user); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to update password")
		return ErrOperationFailed
	}

	if _, err := s.tokens.RevokeAllForUser(ctx, userID, sourceIP, reasonPasswordChanged, keepToken); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to revoke sessions after password change")
	}
	return nil
}

// ResetPassword sets a new password for a user (admin only) and revokes all
// of their sessions.
func (s *AuthService) ResetPassword(ctx context.Context, userID, newPassword, sourceIP string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to load user")
		return ErrOperationFailed
	}
	if user == nil {
		return ErrUserNotFound
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Failed to hash password")
		return ErrOperationFailed
	}
	user.PasswordHash = string(hashedPassword)
	if err := s.users.Update(ctx, user); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to reset password")
		return ErrOperationFailed
	}

	if _, err := s.tokens.RevokeAllForUser(ctx, userID, sourceIP, reasonPasswordChanged, ""); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to revoke sessions after password reset")
	}
	return nil
}

// SetUserActive toggles an account. Deactivating revokes all of the user's
// sessions so outstanding refresh tokens stop working immediately.
func (s *AuthService) SetUserActive(ctx context.Context, userID string, isActive bool, sourceIP string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to load user")
		return ErrOperationFailed
	}
	if user == nil {
		return ErrUserNotFound
	}

	user.IsActive = isActive
	if err := s.users.Update(ctx, user); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to update user status")
		return ErrOperationFailed
	}

	if !isActive {
		if _, err := s.tokens.RevokeAllForUser(ctx, userID, sourceIP, reasonAccountDeactivated, ""); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Warn("Failed to revoke sessions on deactivation")
		}
	}
	return nil
}

// ValidateAccessToken verifies a bearer token and returns its claims.
func (s *AuthService) ValidateAccessToken(tokenString string) (*models.TokenInfo, error) {
	return s.signer.Validate(tokenString, true)
}

// GetUser loads one user by id.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to load user")
		return nil, ErrOperationFailed
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetAllUsers returns users with pagination and search (admin only).
func (s *AuthService) GetAllUsers(ctx context.Context, page, pageSize int, search string) ([]models.User, int64, error) {
	page, pageSize = utils.ValidateAndNormalizePagination(page, pageSize)
	users, total, err := s.users.List(ctx, page, pageSize, search)
	if err != nil {
		logrus.WithError(err).Error("Failed to list users")
		return nil, 0, ErrOperationFailed
	}
	return users, total, nil
}

// EnsureAdminUser creates the bootstrap admin account if it doesn't exist.
func (s *AuthService) EnsureAdminUser(ctx context.Context) error {
	existing, err := s.users.GetByUsername(ctx, "admin")
	if err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}
	if existing != nil {
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "ChangeMe@@123"
		logrus.Warn("ADMIN_PASSWORD not set, using default admin password")
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.User{
		Email:        "admin@modaliv.local",
		Username:     "admin",
		PasswordHash: string(hashedPassword),
		FirstName:    "Admin",
		LastName:     "User",
		IsActive:     true,
		IsAdmin:      true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	return nil
}

func (s *AuthService) buildAuthResponse(ctx context.Context, user *models.User, sourceIP string, rememberMe bool) (*models.AuthResponse, error) {
	accessToken, expiresAt, err := s.signer.Issue(user)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to sign access token")
		return nil, ErrOperationFailed
	}

	refresh, err := s.tokens.Issue(ctx, user.ID, sourceIP, rememberMe, user.IsSystem)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		AccessToken:      accessToken,
		RefreshToken:     refresh.Token,
		TokenType:        "Bearer",
		ExpiresIn:        int64(expiresAt.Sub(s.tokens.now()).Seconds()),
		RefreshExpiresAt: refresh.ExpiresAt,
		User:             *user,
	}, nil
}
