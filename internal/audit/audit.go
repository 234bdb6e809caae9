package audit

import (
	"log"
	"time"

	"github.com/GeoVista/GV-Backend/internal/db"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// AuditLog is an append-only record of a privileged mutation. Rows are never
// updated or deleted.
type AuditLog struct {
	ID          uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	ActorID     string        `json:"actor_id" gorm:"index"`
	Action      string        `json:"action" gorm:"index"` // "boundary_published", "region_created", ...
	EntityType  string        `json:"entity_type"`
	EntityID    string        `json:"entity_id"`
	Detail      string        `json:"detail"`
	AffectedIDs pq.Int64Array `json:"affected_ids" gorm:"type:bigint[]"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (AuditLog) TableName() string { return "gis.audit_logs" }

// Record writes one audit row. Fire and forget: audit failures are logged,
// never propagated, so they can't fail the operation being audited.
func Record(actorID, action, entityType, entityID, detail string, affectedIDs []int64) {
	entry := AuditLog{
		ID:          uuid.New(),
		ActorID:     actorID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Detail:      detail,
		AffectedIDs: affectedIDs,
	}
	if err := db.DB.Create(&entry).Error; err != nil {
		log.Printf("audit: failed to record %s on %s/%s: %v", action, entityType, entityID, err)
	}
}

func Init() {
	if err := db.EnsureSchema(db.DB, "gis"); err != nil {
		log.Fatal("Failed to ensure schema gis: ", err)
	}
	if err := db.DB.AutoMigrate(&AuditLog{}); err != nil {
		log.Fatal("Failed to auto-migrate audit tables", err)
	}
}
