package regions

import (
	"time"
)

// Region is a named geographic area in a hierarchy (state → district → ...).
type Region struct {
	ID             int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Name           string    `json:"name" gorm:"not null;index"`
	Code           string    `json:"code" gorm:"uniqueIndex"`
	RegionType     string    `json:"region_type"` // "state", "district", "zone"
	ParentRegionID *int      `json:"parent_region_id" gorm:"index"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RegionAccess grants a user visibility into a region. Active grants drive
// notification fan-out when the region's boundary is republished.
type RegionAccess struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id" gorm:"index:idx_region_access,unique,priority:1;not null"`
	RegionID  int       `json:"region_id" gorm:"index:idx_region_access,unique,priority:2;not null"`
	GrantedBy string    `json:"granted_by"`
	Active    bool      `json:"active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
}

// InfrastructureItem is a point asset on the map. RegionID is nil when the
// item is orphaned: contained by no published boundary.
type InfrastructureItem struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name"`
	Category  string    `json:"category"` // "tower", "cabinet", "substation"
	Latitude  float64   `json:"latitude" gorm:"not null"`
	Longitude float64   `json:"longitude" gorm:"not null"`
	RegionID  *int      `json:"region_id" gorm:"index"`
	OwnerID   string    `json:"owner_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Region) TableName() string             { return "gis.regions" }
func (RegionAccess) TableName() string       { return "gis.region_access" }
func (InfrastructureItem) TableName() string { return "gis.infrastructure_items" }
