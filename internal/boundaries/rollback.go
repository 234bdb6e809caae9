package boundaries

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/GeoVista/GV-Backend/internal/audit"
	"github.com/GeoVista/GV-Backend/internal/broadcast"
	"github.com/GeoVista/GV-Backend/internal/db"
	"github.com/GeoVista/GV-Backend/internal/regions"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RollbackResult struct {
	VersionID     int       `json:"version_id"`
	VersionNumber int       `json:"version_number"`
	RegionID      int       `json:"region_id"`
	PublishedAt   time.Time `json:"published_at"`
	ItemsReverted int       `json:"items_reverted"`
}

// Rollback restores an archived version as a NEW published version and
// reverses the item reassignments recorded since it, inside one transaction.
// Only history rows still inside their 30-day window are reverted; expired
// ones are silently excluded.
func Rollback(regionID, targetVersionID int, rollbackReason, actorID string) (*RollbackResult, error) {
	if err := requireAdmin(actorID); err != nil {
		return nil, err
	}

	var region regions.Region
	if err := db.DB.First(&region, "id = ?", regionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegionNotFound
		}
		return nil, err
	}

	var target BoundaryVersion
	err := db.DB.Where("id = ? AND region_id = ? AND status = ?", targetVersionID, regionID, StatusArchived).
		First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVersionNotFound
	}
	if err != nil {
		return nil, err
	}

	if target.PublishedAt == nil || time.Since(*target.PublishedAt) > RollbackWindow {
		return nil, ErrRollbackWindowExpired
	}

	var result RollbackResult

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		var locked []BoundaryVersion
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("region_id = ? AND status = ?", regionID, StatusPublished).
			Find(&locked).Error
		if err != nil {
			return err
		}
		for i := range locked {
			if err := tx.Model(&locked[i]).Update("status", StatusArchived).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		next, err := nextVersionNumber(tx, regionID)
		if err != nil {
			return err
		}

		restored := BoundaryVersion{
			RegionID:        regionID,
			BoundaryGeoJSON: target.BoundaryGeoJSON,
			BoundaryType:    target.BoundaryType,
			VertexCount:     target.VertexCount,
			AreaSqKm:        target.AreaSqKm,
			VersionNumber:   next,
			Status:          StatusPublished,
			CreatedBy:       actorID,
			CreatedAt:       now,
			PublishedBy:     &actorID,
			PublishedAt:     &now,
			ChangeReason:    fmt.Sprintf("Rolled back from version %d", target.VersionNumber),
			Source:          "rollback",
		}
		if err := tx.Create(&restored).Error; err != nil {
			return err
		}

		// Every still-reversible reassignment made after the target
		// version, newest first, so an item moved twice lands back at
		// its oldest recorded region.
		var history []InfrastructureRegionHistory
		err = tx.Where("boundary_version_id IN (?)",
			tx.Model(&BoundaryVersion{}).Select("id").
				Where("region_id = ? AND version_number > ?", regionID, target.VersionNumber)).
			Where("can_rollback = true AND rollback_expires_at > ?", now).
			Order("version_number DESC, changed_at DESC").
			Find(&history).Error
		if err != nil {
			return err
		}

		reverted := map[int]bool{}
		var affectedIDs []int64

		for _, row := range history {
			var item regions.InfrastructureItem
			if err := tx.First(&item, "id = ?", row.InfrastructureID).Error; err != nil {
				return err
			}
			// Update mutates item.RegionID, so keep the pre-revert value
			// for the reversal record.
			prevRegionID := item.RegionID

			if err := tx.Model(&item).Update("region_id", row.OldRegionID).Error; err != nil {
				return err
			}

			// Consume the row so a second rollback can't replay it.
			if err := tx.Model(&row).Update("can_rollback", false).Error; err != nil {
				return err
			}

			reversal := InfrastructureRegionHistory{
				ID:                uuid.New(),
				InfrastructureID:  row.InfrastructureID,
				OldRegionID:       prevRegionID,
				NewRegionID:       row.OldRegionID,
				BoundaryVersionID: restored.ID,
				VersionNumber:     next,
				ChangedBy:         actorID,
				ChangedAt:         now,
				ChangeReason:      fmt.Sprintf("Rollback to version %d", target.VersionNumber),
				IsInvalid:         row.OldRegionID == nil,
				CanRollback:       false,
			}
			if err := tx.Create(&reversal).Error; err != nil {
				return err
			}

			if !reverted[row.InfrastructureID] {
				reverted[row.InfrastructureID] = true
				affectedIDs = append(affectedIDs, int64(row.InfrastructureID))
			}
		}

		if err := mirrorLegacyBoundary(tx, &restored, actorID, now); err != nil {
			return err
		}

		entry := audit.AuditLog{
			ID:         uuid.New(),
			ActorID:    actorID,
			Action:     "boundary_rolled_back",
			EntityType: "boundary_version",
			EntityID:   strconv.Itoa(restored.ID),
			Detail: fmt.Sprintf("region %d rolled back to version %d as version %d, %d items reverted, reason=%q",
				regionID, target.VersionNumber, next, len(reverted), rollbackReason),
			AffectedIDs: affectedIDs,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		result = RollbackResult{
			VersionID:     restored.ID,
			VersionNumber: next,
			RegionID:      regionID,
			PublishedAt:   now,
			ItemsReverted: len(reverted),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	broadcast.Publish(context.Background(), broadcast.Event{
		Type:          "boundary_rolled_back",
		RegionID:      regionID,
		RegionName:    region.Name,
		VersionNumber: result.VersionNumber,
		ItemsAffected: result.ItemsReverted,
		Timestamp:     result.PublishedAt,
	})

	return &result, nil
}
