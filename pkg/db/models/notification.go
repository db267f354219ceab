package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/grandmarche/backend/pkg/enums"
)

// Notification is addressed to exactly one recipient identity. RecipientID is
// a string because guest customers are addressed by a synthetic identity
// derived from the order short code (guest_<shortCode>).
type Notification struct {
	ID          uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientID string                     `gorm:"column:recipient_id;not null;index"`
	Category    enums.NotificationCategory `gorm:"column:category;type:notification_category;not null"`
	Title       string                     `gorm:"column:title;not null"`
	Message     string                     `gorm:"column:message;not null"`
	Link        *string                    `gorm:"column:link"`
	ReadAt      *time.Time                 `gorm:"column:read_at"`
	CreatedAt   time.Time                  `gorm:"column:created_at;autoCreateTime"`
}
