package handlers

import (
	"net/http"
	"strconv"

	"github.com/modaliv/modaliv-backend/internal/models"
	"github.com/modaliv/modaliv-backend/internal/services/auth"
	"github.com/modaliv/modaliv-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	authService  *auth.AuthService
	tokenService *auth.TokenService
}

func NewAdminHandler(authService *auth.AuthService, tokenService *auth.TokenService) *AdminHandler {
	return &AdminHandler{
		authService:  authService,
		tokenService: tokenService,
	}
}

// ListUsers godoc
// @Summary List users
// @Description List all accounts with pagination and username/email search
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param search query string false "Username or email fragment"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	search := c.Query("search")

	users, total, err := h.authService.GetAllUsers(c.Request.Context(), page, pageSize, search)
	if err != nil {
		respondError(c, err)
		return
	}

	page, pageSize = utils.ValidateAndNormalizePagination(page, pageSize)
	c.JSON(http.StatusOK, gin.H{
		"users":      users,
		"pagination": utils.CalculatePaginationInfo(int(total), page, pageSize),
	})
}

// SetUserActive godoc
// @Summary Activate or deactivate a user
// @Description Toggle an account; deactivation revokes all of the user's sessions
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body models.SetUserActiveRequest true "Target status"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/admin/users/{id}/status [put]
func (h *AdminHandler) SetUserActive(c *gin.Context) {
	userID := c.Param("id")

	var req models.SetUserActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	if err := h.authService.SetUserActive(c.Request.Context(), userID, req.IsActive, c.ClientIP()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User status updated"})
}

// ResetPassword godoc
// @Summary Reset a user's password
// @Description Set a new password for a user and revoke all of their sessions
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body models.ResetPasswordRequest true "New password"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/admin/users/{id}/reset-password [post]
func (h *AdminHandler) ResetPassword(c *gin.Context) {
	userID := c.Param("id")

	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), userID, req.NewPassword, c.ClientIP()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

// RevokeUserSessions godoc
// @Summary Revoke all sessions of a user
// @Description Revoke every active refresh token of the given user
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/admin/users/{id}/sessions [delete]
func (h *AdminHandler) RevokeUserSessions(c *gin.Context) {
	userID := c.Param("id")

	count, err := h.tokenService.RevokeAllForUser(c.Request.Context(), userID, c.ClientIP(), "Revoked by administrator", "")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sessions revoked", "revoked": count})
}

// CleanupTokens godoc
// @Summary Trigger token cleanup
// @Description Hard-delete refresh tokens past the retention window
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/admin/tokens/cleanup [post]
func (h *AdminHandler) CleanupTokens(c *gin.Context) {
	removed, err := h.tokenService.Cleanup(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cleanup completed", "removed": removed})
}
