package boundaries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/GeoVista/GV-Backend/internal/audit"
	"github.com/GeoVista/GV-Backend/internal/auth"
	"github.com/GeoVista/GV-Backend/internal/broadcast"
	"github.com/GeoVista/GV-Backend/internal/db"
	"github.com/GeoVista/GV-Backend/internal/notifications"
	"github.com/GeoVista/GV-Backend/internal/regions"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PublishResult struct {
	VersionID         int           `json:"version_id"`
	VersionNumber     int           `json:"version_number"`
	RegionID          int           `json:"region_id"`
	PublishedAt       time.Time     `json:"published_at"`
	RollbackExpiresAt time.Time     `json:"rollback_expires_at"`
	Summary           ImpactSummary `json:"summary"`
	UsersNotified     int           `json:"users_notified"`
}

// reassignFailure lets tests inject an error into the reassignment step to
// exercise transaction rollback. Nil outside tests.
var reassignFailure func(itemID int) error

// Publish promotes the region's draft to the published boundary and cascades
// item reassignment, all inside one transaction. The impact classification is
// recomputed fresh inside the transaction rather than trusting a prior
// analyze call, so concurrent item edits can't be lost. Notifications and the
// live broadcast happen after commit and are best-effort.
func Publish(regionID int, publishReason string, notifyUsers bool, actorID string) (*PublishResult, error) {
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

	var (
		result PublishResult
		users  []string
	)

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		// Row locks on the region's draft/published rows serialize
		// concurrent publishes of the same region; without this, two
		// publishers could both read the same draft and one archival
		// step would be silently lost.
		var locked []BoundaryVersion
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("region_id = ? AND status IN ?", regionID, []string{StatusDraft, StatusPublished}).
			Find(&locked).Error
		if err != nil {
			return err
		}

		var draft, current *BoundaryVersion
		for i := range locked {
			switch locked[i].Status {
			case StatusDraft:
				draft = &locked[i]
			case StatusPublished:
				current = &locked[i]
			}
		}
		if draft == nil {
			return ErrNoDraft
		}

		c, err := computeImpact(tx, regionID, draft)
		if err != nil {
			return err
		}

		users, err = affectedUsers(tx, regionID)
		if err != nil {
			return err
		}

		now := time.Now()
		expiry := now.Add(RollbackWindow)

		summary := ImpactSummary{
			TotalAffected:      len(c.Staying) + len(c.Leaving) + len(c.Entering),
			Staying:            len(c.Staying),
			Leaving:            len(c.Leaving),
			Entering:           len(c.Entering),
			BecomingInvalid:    len(c.BecomingInvalid),
			AffectedUsersCount: len(users),
			AnalyzedAt:         now,
		}
		summaryJSON, err := json.Marshal(summary)
		if err != nil {
			return err
		}

		if current != nil {
			if err := tx.Model(current).Update("status", StatusArchived).Error; err != nil {
				return err
			}
		}

		promote := map[string]any{
			"status":         StatusPublished,
			"published_by":   actorID,
			"published_at":   now,
			"change_reason":  publishReason,
			"impact_summary": summaryJSON,
		}
		if err := tx.Model(draft).Updates(promote).Error; err != nil {
			return err
		}

		var affectedIDs []int64

		reassign := func(itemID int, newRegion *int, isInvalid bool) error {
			if reassignFailure != nil {
				if err := reassignFailure(itemID); err != nil {
					return err
				}
			}

			var item regions.InfrastructureItem
			if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
				return err
			}
			// Update mutates item.RegionID, so keep the pre-move value for
			// the history record.
			prevRegionID := item.RegionID

			if err := tx.Model(&item).Update("region_id", newRegion).Error; err != nil {
				return err
			}

			history := InfrastructureRegionHistory{
				ID:                uuid.New(),
				InfrastructureID:  item.ID,
				OldRegionID:       prevRegionID,
				NewRegionID:       newRegion,
				BoundaryVersionID: draft.ID,
				VersionNumber:     draft.VersionNumber,
				ChangedBy:         actorID,
				ChangedAt:         now,
				ChangeReason:      publishReason,
				IsInvalid:         isInvalid,
				CanRollback:       true,
				RollbackExpiresAt: &expiry,
			}
			if err := tx.Create(&history).Error; err != nil {
				return err
			}
			affectedIDs = append(affectedIDs, int64(item.ID))
			return nil
		}

		for _, entry := range c.Leaving {
			if entry.ProspectiveRegionID != nil {
				if err := reassign(entry.ID, entry.ProspectiveRegionID, false); err != nil {
					return err
				}
			} else {
				if err := reassign(entry.ID, nil, true); err != nil {
					return err
				}
			}
		}
		target := regionID
		for _, entry := range c.Entering {
			if err := reassign(entry.ID, &target, false); err != nil {
				return err
			}
		}

		if err := mirrorLegacyBoundary(tx, draft, actorID, now); err != nil {
			return err
		}

		entry := audit.AuditLog{
			ID:         uuid.New(),
			ActorID:    actorID,
			Action:     "boundary_published",
			EntityType: "boundary_version",
			EntityID:   strconv.Itoa(draft.ID),
			Detail: fmt.Sprintf("region %d version %d: staying=%d leaving=%d entering=%d invalid=%d reason=%q",
				regionID, draft.VersionNumber, summary.Staying, summary.Leaving, summary.Entering,
				summary.BecomingInvalid, publishReason),
			AffectedIDs: affectedIDs,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		result = PublishResult{
			VersionID:         draft.ID,
			VersionNumber:     draft.VersionNumber,
			RegionID:          regionID,
			PublishedAt:       now,
			RollbackExpiresAt: expiry,
			Summary:           summary,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Post-commit side effects. Failures here are logged inside the
	// helpers and never surfaced: the publish has already committed.
	if notifyUsers && len(users) > 0 {
		title := fmt.Sprintf("Boundary updated: %s", region.Name)
		body := fmt.Sprintf("Region %s boundary version %d was published; %d infrastructure items affected.",
			region.Name, result.VersionNumber, result.Summary.TotalAffected)
		result.UsersNotified = notifications.NotifyUsers(users, "boundary_update", title, body)
	}

	broadcast.Publish(context.Background(), broadcast.Event{
		Type:          "boundary_published",
		RegionID:      regionID,
		RegionName:    region.Name,
		VersionNumber: result.VersionNumber,
		ItemsAffected: result.Summary.TotalAffected,
		Timestamp:     result.PublishedAt,
	})

	return &result, nil
}

// Unpublish archives the current published version without promoting a
// replacement, leaving the region with no boundary. Emergency escape hatch.
func Unpublish(regionID int, actorID string) (*BoundaryVersion, error) {
	if err := requireAdmin(actorID); err != nil {
		return nil, err
	}
	if err := requireRegion(db.DB, regionID); err != nil {
		return nil, err
	}

	var archived BoundaryVersion
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("region_id = ? AND status = ?", regionID, StatusPublished).
			First(&archived).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoPublished
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&archived).Update("status", StatusArchived).Error; err != nil {
			return err
		}

		err = tx.Model(&RegionBoundary{}).
			Where("region_id = ? AND is_active = true", regionID).
			Updates(map[string]any{"is_active": false, "updated_by": actorID}).Error
		if err != nil {
			return err
		}

		entry := audit.AuditLog{
			ID:         uuid.New(),
			ActorID:    actorID,
			Action:     "boundary_unpublished",
			EntityType: "boundary_version",
			EntityID:   strconv.Itoa(archived.ID),
			Detail:     fmt.Sprintf("region %d version %d unpublished with no replacement", regionID, archived.VersionNumber),
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	broadcast.Publish(context.Background(), broadcast.Event{
		Type:          "boundary_unpublished",
		RegionID:      regionID,
		VersionNumber: archived.VersionNumber,
	})

	return &archived, nil
}

// mirrorLegacyBoundary keeps gis.region_boundaries in sync for readers that
// still query "the" boundary rather than the published version.
func mirrorLegacyBoundary(tx *gorm.DB, version *BoundaryVersion, actorID string, now time.Time) error {
	err := tx.Model(&RegionBoundary{}).
		Where("region_id = ? AND is_active = true", version.RegionID).
		Updates(map[string]any{"is_active": false, "updated_by": actorID}).Error
	if err != nil {
		return err
	}

	mirror := RegionBoundary{
		RegionID:        version.RegionID,
		BoundaryGeoJSON: version.BoundaryGeoJSON,
		BoundaryType:    version.BoundaryType,
		IsActive:        true,
		UpdatedBy:       actorID,
		UpdatedAt:       now,
	}
	return tx.Create(&mirror).Error
}

// requireAdmin re-checks the actor's role inside the orchestrators. Routes
// already gate on the admin middleware; this guards direct callers.
func requireAdmin(actorID string) error {
	var user auth.User
	if err := db.DB.First(&user, "user_id = ?", actorID).Error; err != nil {
		return ErrForbidden
	}
	if user.Role != "admin" {
		return ErrForbidden
	}
	return nil
}
