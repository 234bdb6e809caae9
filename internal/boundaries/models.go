package boundaries

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// RollbackWindow bounds how long after publishing a version (and its item
// reassignments) can still be rolled back. Expiry is checked lazily at
// rollback time; expired history rows stay in place but become inert.
const RollbackWindow = 30 * 24 * time.Hour

// BoundaryVersion is one versioned geometry for a region. Per region there is
// at most one draft and at most one published row at any time, and version
// numbers are strictly increasing and never reused.
type BoundaryVersion struct {
	ID              int            `json:"id" gorm:"primaryKey;autoIncrement"`
	RegionID        int            `json:"region_id" gorm:"index:idx_region_version,unique,priority:1;not null"`
	BoundaryGeoJSON datatypes.JSON `json:"boundary_geojson" gorm:"not null"`
	BoundaryType    string         `json:"boundary_type"` // "Polygon" or "MultiPolygon"
	VertexCount     int            `json:"vertex_count"`
	AreaSqKm        float64        `json:"area_sq_km"`
	VersionNumber   int            `json:"version_number" gorm:"index:idx_region_version,unique,priority:2;not null"`
	Status          string         `json:"status" gorm:"index;not null"`
	CreatedBy       string         `json:"created_by"`
	CreatedAt       time.Time      `json:"created_at"`
	PublishedBy     *string        `json:"published_by"`
	PublishedAt     *time.Time     `json:"published_at"`
	ChangeReason    string         `json:"change_reason"`
	Notes           string         `json:"notes"`
	Source          string         `json:"source"` // "drawn", "imported", "rollback"
	ImpactSummary   datatypes.JSON `json:"impact_summary"`
}

// RegionBoundary is the legacy single-current-boundary table. Older read
// paths query "the" boundary for a region instead of the published version,
// so every publish mirrors into it.
type RegionBoundary struct {
	ID              int            `json:"id" gorm:"primaryKey;autoIncrement"`
	RegionID        int            `json:"region_id" gorm:"index;not null"`
	BoundaryGeoJSON datatypes.JSON `json:"boundary_geojson"`
	BoundaryType    string         `json:"boundary_type"`
	IsActive        bool           `json:"is_active" gorm:"index"`
	UpdatedBy       string         `json:"updated_by"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// InfrastructureRegionHistory records one item reassignment. Append-only:
// after insert the only permitted mutation is CanRollback flipping to false
// once the row is consumed by a rollback or its window expires.
type InfrastructureRegionHistory struct {
	ID                uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	InfrastructureID  int        `json:"infrastructure_id" gorm:"index;not null"`
	OldRegionID       *int       `json:"old_region_id"`
	NewRegionID       *int       `json:"new_region_id"` // nil when the item became orphaned
	BoundaryVersionID int        `json:"boundary_version_id" gorm:"index"`
	VersionNumber     int        `json:"version_number"`
	ChangedBy         string     `json:"changed_by"`
	ChangedAt         time.Time  `json:"changed_at"`
	ChangeReason      string     `json:"change_reason"`
	IsInvalid         bool       `json:"is_invalid"`
	CanRollback       bool       `json:"can_rollback" gorm:"index"`
	RollbackExpiresAt *time.Time `json:"rollback_expires_at"`
}

func (BoundaryVersion) TableName() string             { return "gis.boundary_versions" }
func (RegionBoundary) TableName() string              { return "gis.region_boundaries" }
func (InfrastructureRegionHistory) TableName() string { return "gis.infrastructure_region_history" }
