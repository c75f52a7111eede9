package handlers

import (
	"net/http"

	"github.com/modaliv/modaliv-backend/internal/models"
	"github.com/modaliv/modaliv-backend/internal/services/notification"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService *notification.NotificationService
}

func NewNotificationHandler(notificationService *notification.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// ListTemplates godoc
// @Summary List notification templates
// @Description List the active notification template catalog
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.NotificationTemplate
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/notifications/templates [get]
func (h *NotificationHandler) ListTemplates(c *gin.Context) {
	templates, err := h.notificationService.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, templates)
}

// SendNotification godoc
// @Summary Send a notification
// @Description Render a catalog template with the supplied data and queue it for delivery
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SendNotificationRequest true "Send request"
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/notifications/send [post]
func (h *NotificationHandler) SendNotification(c *gin.Context) {
	var req models.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	message, err := h.notificationService.Send(c.Request.Context(), req.TemplateCode, req.Recipient, req.Data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Notification queued", "id": message.ID})
}
