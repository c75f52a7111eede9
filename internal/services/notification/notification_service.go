package notification

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/modaliv/modaliv-backend/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrTemplateNotFound = errors.New("notification template not found")
	ErrTemplateInactive = errors.New("notification template is inactive")
	ErrOperationFailed  = errors.New("notification operation failed")
)

// TemplateStore is the persistence surface the notification service needs.
type TemplateStore interface {
	GetByCode(ctx context.Context, code string) (*models.NotificationTemplate, error)
	ListActive(ctx context.Context) ([]models.NotificationTemplate, error)
	Upsert(ctx context.Context, template *models.NotificationTemplate) error
}

// Publisher pushes rendered messages onto a delivery queue.
type Publisher interface {
	PublishMessage(ctx context.Context, queueName string, message any) error
}

// Message is what delivery workers consume off the queue.
type Message struct {
	ID        string    `json:"id"`
	Template  string    `json:"template"`
	Channel   string    `json:"channel"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	QueuedAt  time.Time `json:"queued_at"`
}

type NotificationService struct {
	templates TemplateStore
	publisher Publisher
	queue     string
	now       func() time.Time
}

func NewNotificationService(templates TemplateStore, publisher Publisher, queue string) *NotificationService {
	return &NotificationService{
		templates: templates,
		publisher: publisher,
		queue:     queue,
		now:       time.Now,
	}
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// RenderTemplate substitutes {{name}} placeholders in a template string.
// Placeholders with no matching value are left intact so a missing variable
// is visible downstream instead of silently blank.
func RenderTemplate(template string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if value, ok := values[name]; ok {
			return value
		}
		return match
	})
}

// ListTemplates returns the active catalog.
func (s *NotificationService) ListTemplates(ctx context.Context) ([]models.NotificationTemplate, error) {
	templates, err := s.templates.ListActive(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list notification templates")
		return nil, ErrOperationFailed
	}
	return templates, nil
}

// GetTemplate loads one template by code regardless of active state.
func (s *NotificationService) GetTemplate(ctx context.Context, code string) (*models.NotificationTemplate, error) {
	template, err := s.templates.GetByCode(ctx, code)
	if err != nil {
		logrus.WithError(err).WithField("code", code).Error("Failed to load notification template")
		return nil, ErrOperationFailed
	}
	if template == nil {
		return nil, ErrTemplateNotFound
	}
	return template, nil
}

// Send renders a template and queues the result for delivery. An unknown
// template code is a not-found failure; a deactivated template is a conflict.
func (s *NotificationService) Send(ctx context.Context, code, recipient string, values map[string]string) (*Message, error) {
	template, err := s.GetTemplate(ctx, code)
	if err != nil {
		return nil, err
	}
	if !template.IsActive {
		return nil, ErrTemplateInactive
	}
	if s.publisher == nil {
		logrus.WithField("code", code).Error("No message broker configured, dropping notification")
		return nil, ErrOperationFailed
	}

	message := &Message{
		ID:        uuid.NewString(),
		Template:  template.Code,
		Channel:   template.Channel,
		Recipient: recipient,
		Subject:   RenderTemplate(template.Subject, values),
		Body:      RenderTemplate(template.Body, values),
		QueuedAt:  s.now(),
	}
	if err := s.publisher.PublishMessage(ctx, s.queue, message); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"code": code, "channel": template.Channel}).
			Error("Failed to queue notification")
		return nil, ErrOperationFailed
	}
	return message, nil
}

// SeedTemplates installs the commerce template set. Existing codes are
// updated in place so edits to the defaults roll out on deploy.
func SeedTemplates(ctx context.Context, store TemplateStore) error {
	defaults := []models.NotificationTemplate{
		{
			Code:    "order_confirmed",
			Channel: "email",
			Subject: "Your order {{order_number}} is confirmed",
			Body:    "Hi {{first_name}}, thanks for shopping with us. Order {{order_number}} totalling {{total}} is confirmed and will ship soon.",
		},
		{
			Code:    "order_shipped",
			Channel: "email",
			Subject: "Order {{order_number}} is on its way",
			Body:    "Hi {{first_name}}, order {{order_number}} has shipped. Track it here: {{tracking_url}}",
		},
		{
			Code:    "password_reset",
			Channel: "email",
			Subject: "Reset your password",
			Body:    "Hi {{first_name}}, use this link to reset your password: {{reset_url}}. It expires in {{expires_minutes}} minutes.",
		},
		{
			Code:    "back_in_stock",
			Channel: "email",
			Subject: "{{product_name}} is back in stock",
			Body:    "Good news {{first_name}}, {{product_name}} in size {{size}} is available again.",
		},
		{
			Code:    "abandoned_cart",
			Channel: "email",
			Subject: "You left something behind",
			Body:    "Hi {{first_name}}, your cart with {{item_count}} items is still waiting for you.",
		},
	}

	for i := range defaults {
		defaults[i].IsActive = true
		if err := store.Upsert(ctx, &defaults[i]); err != nil {
			return err
		}
	}
	return nil
}
