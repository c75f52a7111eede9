package models

import (
	"time"
)

// NotificationTemplate is one entry of the notification catalog. Body and
// Subject may contain {{placeholder}} markers substituted at send time.
type NotificationTemplate struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Code      string    `json:"code" gorm:"type:varchar(64);not null;unique;index"`
	Channel   string    `json:"channel" gorm:"type:varchar(16);not null;default:'email'"`
	Subject   string    `json:"subject" gorm:"type:varchar(255)"`
	Body      string    `json:"body" gorm:"type:text;not null"`
	IsActive  bool      `json:"is_active" gorm:"default:true;index"`
}

// TableName specifies the table name for the NotificationTemplate model
func (NotificationTemplate) TableName() string {
	return "notification_templates"
}
