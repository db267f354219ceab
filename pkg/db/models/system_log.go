package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/grandmarche/backend/pkg/enums"
)

// SystemLog is an audit trail row. Retention is capped to the newest entries.
type SystemLog struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Actor     string            `gorm:"column:actor;not null"`
	Action    string            `gorm:"column:action;not null"`
	Details   *string           `gorm:"column:details"`
	Severity  enums.LogSeverity `gorm:"column:severity;type:log_severity;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
