package boundaries

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/GeoVista/GV-Backend/internal/audit"
	"github.com/GeoVista/GV-Backend/internal/db"
	"github.com/GeoVista/GV-Backend/internal/geometry"
	"github.com/GeoVista/GV-Backend/internal/regions"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DraftInput is the editor payload for creating or updating a draft.
type DraftInput struct {
	BoundaryGeoJSON json.RawMessage `json:"boundaryGeoJSON"`
	ChangeReason    string          `json:"changeReason"`
	Notes           string          `json:"notes"`
	Source          string          `json:"source"`
}

// GetDraft returns the region's draft, or nil when none exists.
func GetDraft(regionID int) (*BoundaryVersion, error) {
	var draft BoundaryVersion
	err := db.DB.Where("region_id = ? AND status = ?", regionID, StatusDraft).First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// UpsertDraft validates the geometry and either overwrites the region's
// existing draft in place (same row, same version number) or inserts a new
// draft with the next version number. Idempotent for identical payloads.
func UpsertDraft(regionID int, input DraftInput, actorID string) (*BoundaryVersion, error) {
	if err := requireRegion(db.DB, regionID); err != nil {
		return nil, err
	}

	geom, err := geometry.ParseGeometry(input.BoundaryGeoJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	var draft *BoundaryVersion
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		var existing BoundaryVersion
		findErr := tx.Where("region_id = ? AND status = ?", regionID, StatusDraft).First(&existing).Error

		if findErr == nil {
			updates := map[string]any{
				"boundary_geo_json": datatypes.JSON(input.BoundaryGeoJSON),
				"boundary_type":     geom.Type,
				"vertex_count":      geometry.VertexCount(geom),
				"area_sq_km":        geometry.AreaSqKm(geom),
				"change_reason":     input.ChangeReason,
				"notes":             input.Notes,
				"source":            input.Source,
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return err
			}
			if err := tx.First(&existing, "id = ?", existing.ID).Error; err != nil {
				return err
			}
			draft = &existing
			return nil
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		next, err := nextVersionNumber(tx, regionID)
		if err != nil {
			return err
		}
		fresh := BoundaryVersion{
			RegionID:        regionID,
			BoundaryGeoJSON: datatypes.JSON(input.BoundaryGeoJSON),
			BoundaryType:    geom.Type,
			VertexCount:     geometry.VertexCount(geom),
			AreaSqKm:        geometry.AreaSqKm(geom),
			VersionNumber:   next,
			Status:          StatusDraft,
			CreatedBy:       actorID,
			ChangeReason:    input.ChangeReason,
			Notes:           input.Notes,
			Source:          input.Source,
		}
		if err := tx.Create(&fresh).Error; err != nil {
			return err
		}
		draft = &fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return draft, nil
}

// DiscardDraft deletes the region's draft row.
func DiscardDraft(regionID int, actorID string) error {
	var draft BoundaryVersion
	err := db.DB.Where("region_id = ? AND status = ?", regionID, StatusDraft).First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNoDraft
	}
	if err != nil {
		return err
	}

	if err := db.DB.Delete(&draft).Error; err != nil {
		return err
	}

	audit.Record(actorID, "boundary_draft_discarded", "boundary_version", strconv.Itoa(draft.ID),
		fmt.Sprintf("region %d version %d", regionID, draft.VersionNumber), nil)
	return nil
}

// CreateDraftFromVersion copies an existing version's geometry into a fresh
// draft with a new version number. Fails if a draft already exists.
func CreateDraftFromVersion(regionID, sourceVersionID int, actorID string) (*BoundaryVersion, error) {
	var draft *BoundaryVersion
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var existing BoundaryVersion
		findErr := tx.Where("region_id = ? AND status = ?", regionID, StatusDraft).First(&existing).Error
		if findErr == nil {
			return ErrDraftExists
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		var source BoundaryVersion
		if err := tx.Where("id = ? AND region_id = ?", sourceVersionID, regionID).First(&source).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVersionNotFound
			}
			return err
		}

		next, err := nextVersionNumber(tx, regionID)
		if err != nil {
			return err
		}
		fresh := BoundaryVersion{
			RegionID:        regionID,
			BoundaryGeoJSON: source.BoundaryGeoJSON,
			BoundaryType:    source.BoundaryType,
			VertexCount:     source.VertexCount,
			AreaSqKm:        source.AreaSqKm,
			VersionNumber:   next,
			Status:          StatusDraft,
			CreatedBy:       actorID,
			ChangeReason:    fmt.Sprintf("Editing from version %d", source.VersionNumber),
			Source:          "version_copy",
		}
		if err := tx.Create(&fresh).Error; err != nil {
			return err
		}
		draft = &fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	audit.Record(actorID, "boundary_draft_created", "boundary_version", strconv.Itoa(draft.ID),
		fmt.Sprintf("region %d copied from version %d", regionID, sourceVersionID), nil)
	return draft, nil
}

// ListVersions returns the region's full version history, newest first.
func ListVersions(regionID int) ([]BoundaryVersion, error) {
	if err := requireRegion(db.DB, regionID); err != nil {
		return nil, err
	}

	var versions []BoundaryVersion
	err := db.DB.Where("region_id = ?", regionID).
		Order("version_number DESC").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// DeleteVersion removes one version row. The sole published version for a
// region is protected: a replacement must be published first.
func DeleteVersion(regionID, versionID int, reason, actorID string) error {
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var version BoundaryVersion
		if err := tx.Where("id = ? AND region_id = ?", versionID, regionID).First(&version).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVersionNotFound
			}
			return err
		}

		if version.Status == StatusPublished {
			return ErrPublishedVersion
		}

		return tx.Delete(&version).Error
	})
	if err != nil {
		return err
	}

	audit.Record(actorID, "boundary_version_deleted", "boundary_version", strconv.Itoa(versionID),
		fmt.Sprintf("region %d: %s", regionID, reason), nil)
	return nil
}

// nextVersionNumber allocates max+1 for the region across ALL statuses, so a
// number is never reused even after deletes of newer drafts.
func nextVersionNumber(tx *gorm.DB, regionID int) (int, error) {
	var max *int
	err := tx.Model(&BoundaryVersion{}).
		Where("region_id = ?", regionID).
		Select("MAX(version_number)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

func requireRegion(tx *gorm.DB, regionID int) error {
	var region regions.Region
	err := tx.First(&region, "id = ?", regionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRegionNotFound
	}
	return err
}
