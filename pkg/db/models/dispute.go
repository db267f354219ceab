package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/grandmarche/backend/pkg/db/types"
	"github.com/grandmarche/backend/pkg/enums"
)

// Dispute gates the accept/reject fork of the return sub-workflow. A resolved
// dispute is never reopened; escalation means a new row.
type Dispute struct {
	ID                 uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderShortCode     string                 `gorm:"column:order_short_code;not null;index"`
	PartnerID          *uuid.UUID             `gorm:"column:partner_id;type:uuid"`
	Type               enums.DisputeType      `gorm:"column:type;type:dispute_type;not null"`
	Description        string                 `gorm:"column:description;not null"`
	Status             enums.DisputeStatus    `gorm:"column:status;type:dispute_status;not null"`
	Decision           *enums.DisputeDecision `gorm:"column:decision;type:dispute_decision"`
	ResolutionNote     *string                `gorm:"column:resolution_note"`
	AffectedProductIDs dbtypes.UUIDArray      `gorm:"column:affected_product_ids;type:uuid[];not null;default:ARRAY[]::uuid[]"`
	PhotoReference     *string                `gorm:"column:photo_reference"`
	ResolvedAt         *time.Time             `gorm:"column:resolved_at"`
	CreatedAt          time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
