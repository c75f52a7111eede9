package models

import (
	"time"
)

// RefreshTokenLength is the fixed length of every refresh token string.
const RefreshTokenLength = 64

// RefreshToken represents one issued refresh credential for a user session.
// Rotation chains tokens together: when a token is rotated, the old record is
// revoked and ReplacedByToken carries the successor's token string.
type RefreshToken struct {
	ID               string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Token            string     `json:"token" gorm:"type:varchar(64);not null;unique;index"`
	UserID           string     `json:"user_id" gorm:"not null;index;type:uuid"`
	ExpiresAt        time.Time  `json:"expires_at" gorm:"not null;index"`
	CreatedByIP      string     `json:"created_by_ip" gorm:"type:varchar(45)"`
	Revoked          bool       `json:"revoked" gorm:"default:false;index"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	RevokedByIP      string     `json:"revoked_by_ip" gorm:"type:varchar(45)"`
	ReplacedByToken  string     `json:"replaced_by_token" gorm:"type:varchar(64)"`
	RevocationReason string     `json:"revocation_reason" gorm:"type:varchar(255)"`
	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the RefreshToken model
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// IsExpired reports whether the token is past its expiry at the given instant.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsActive reports whether the token is neither revoked nor expired.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return !t.Revoked && !t.IsExpired(now)
}

// IsReplaced reports whether the token has been rotated into a successor.
func (t *RefreshToken) IsReplaced() bool {
	return t.ReplacedByToken != ""
}
