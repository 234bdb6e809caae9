package boundaries

import (
	"fmt"
	"time"

	"github.com/GeoVista/GV-Backend/internal/db"
	"github.com/GeoVista/GV-Backend/internal/geometry"
	"github.com/GeoVista/GV-Backend/internal/regions"
	"gorm.io/gorm"
)

// stayingSampleCap bounds how many staying items are returned in full; the
// summary always carries the real total. Presentation concern only.
const stayingSampleCap = 100

type ImpactItem struct {
	ID                  int     `json:"id"`
	Name                string  `json:"name"`
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
	CurrentRegionID     *int    `json:"current_region_id"`
	ProspectiveRegionID *int    `json:"prospective_region_id,omitempty"`
}

type ImpactSummary struct {
	TotalAffected      int       `json:"total_affected"`
	Staying            int       `json:"staying"`
	Leaving            int       `json:"leaving"`
	Entering           int       `json:"entering"`
	BecomingInvalid    int       `json:"becoming_invalid"`
	AffectedUsersCount int       `json:"affected_users_count"`
	AnalyzedAt         time.Time `json:"analyzed_at"`
}

type ImpactReport struct {
	Summary         ImpactSummary `json:"summary"`
	StayingSample   []ImpactItem  `json:"staying_sample"`
	Leaving         []ImpactItem  `json:"leaving"`
	Entering        []ImpactItem  `json:"entering"`
	BecomingInvalid []ImpactItem  `json:"becoming_invalid"`
	AffectedUsers   []string      `json:"affected_users"`
}

// publishedBoundary pairs a region with its parsed published geometry, used
// to resolve where a leaving item lands.
type publishedBoundary struct {
	RegionID  int
	VersionID int
	Geom      geometry.Geometry
}

// classification holds the raw impact sets. Leaving contains ALL leavers;
// BecomingInvalid is the subset of leavers contained by no other published
// boundary, so TotalAffected = staying + leaving + entering.
type classification struct {
	Staying         []ImpactItem
	Leaving         []ImpactItem
	Entering        []ImpactItem
	BecomingInvalid []ImpactItem
}

// classifyImpact is the pure core shared by analysis and publish. Candidate
// set is the union of items currently in the region and items geometrically
// inside the draft; everything else is untouched. Prospective regions use
// first-match in the order `published` was supplied (no tie-break for
// overlapping boundaries).
func classifyImpact(regionID int, draft geometry.Geometry, items []regions.InfrastructureItem, published []publishedBoundary) classification {
	var c classification

	for _, item := range items {
		currentlyInRegion := item.RegionID != nil && *item.RegionID == regionID
		willBeInside := geometry.Contains(draft, item.Longitude, item.Latitude)

		if !currentlyInRegion && !willBeInside {
			continue
		}

		entry := ImpactItem{
			ID:              item.ID,
			Name:            item.Name,
			Latitude:        item.Latitude,
			Longitude:       item.Longitude,
			CurrentRegionID: item.RegionID,
		}

		switch {
		case currentlyInRegion && willBeInside:
			c.Staying = append(c.Staying, entry)
		case currentlyInRegion && !willBeInside:
			for _, pb := range published {
				if pb.RegionID == regionID {
					continue
				}
				if geometry.Contains(pb.Geom, item.Longitude, item.Latitude) {
					prospective := pb.RegionID
					entry.ProspectiveRegionID = &prospective
					break
				}
			}
			c.Leaving = append(c.Leaving, entry)
			if entry.ProspectiveRegionID == nil {
				c.BecomingInvalid = append(c.BecomingInvalid, entry)
			}
		default: // entering
			c.Entering = append(c.Entering, entry)
		}
	}

	return c
}

// computeImpact loads the candidate items and other regions' published
// boundaries through dbh and classifies them against the region's draft.
// Runs against db.DB for read-only analysis and against the open transaction
// during publish, where the classification is recomputed fresh.
func computeImpact(dbh *gorm.DB, regionID int, draft *BoundaryVersion) (classification, error) {
	draftGeom, err := geometry.ParseGeometry(draft.BoundaryGeoJSON)
	if err != nil {
		return classification{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	var items []regions.InfrastructureItem
	if err := dbh.Order("id").Find(&items).Error; err != nil {
		return classification{}, err
	}

	published, err := loadOtherPublishedBoundaries(dbh, regionID)
	if err != nil {
		return classification{}, err
	}

	return classifyImpact(regionID, draftGeom, items, published), nil
}

// loadOtherPublishedBoundaries returns every other region's published
// geometry. Ordered by region id only so results are stable; within that,
// first-match containment wins.
func loadOtherPublishedBoundaries(dbh *gorm.DB, regionID int) ([]publishedBoundary, error) {
	var rows []BoundaryVersion
	err := dbh.Where("status = ? AND region_id <> ?", StatusPublished, regionID).
		Order("region_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]publishedBoundary, 0, len(rows))
	for _, row := range rows {
		geom, err := geometry.ParseGeometry(row.BoundaryGeoJSON)
		if err != nil {
			// A stored published boundary that no longer parses is a data
			// bug; skip it rather than fail every analysis.
			continue
		}
		out = append(out, publishedBoundary{RegionID: row.RegionID, VersionID: row.ID, Geom: geom})
	}
	return out, nil
}

// affectedUsers returns active users holding an active access grant on the
// region; these are the notification recipients for boundary changes.
func affectedUsers(dbh *gorm.DB, regionID int) ([]string, error) {
	query := `
		SELECT ra.user_id
		FROM gis.region_access ra
		JOIN app_auth.users u ON u.user_id = ra.user_id
		WHERE ra.region_id = ? AND ra.active = true AND u.active = true
		ORDER BY ra.user_id
	`

	rows, err := dbh.Raw(query, regionID).Rows()
	if err != nil {
		return nil, fmt.Errorf("affected users query failed: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan affected user: %w", err)
		}
		users = append(users, userID)
	}
	return users, nil
}

// AnalyzeImpact previews the consequences of publishing the region's current
// draft. Read-only; the report is a snapshot at call time with no locking, so
// concurrent draft edits may produce different results on the next call.
func AnalyzeImpact(regionID int) (*ImpactReport, error) {
	if err := requireRegion(db.DB, regionID); err != nil {
		return nil, err
	}

	draft, err := GetDraft(regionID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, ErrNoDraft
	}

	c, err := computeImpact(db.DB, regionID, draft)
	if err != nil {
		return nil, err
	}

	users, err := affectedUsers(db.DB, regionID)
	if err != nil {
		return nil, err
	}

	sample := c.Staying
	if len(sample) > stayingSampleCap {
		sample = sample[:stayingSampleCap]
	}

	return &ImpactReport{
		Summary: ImpactSummary{
			TotalAffected:      len(c.Staying) + len(c.Leaving) + len(c.Entering),
			Staying:            len(c.Staying),
			Leaving:            len(c.Leaving),
			Entering:           len(c.Entering),
			BecomingInvalid:    len(c.BecomingInvalid),
			AffectedUsersCount: len(users),
			AnalyzedAt:         time.Now(),
		},
		StayingSample:   sample,
		Leaving:         c.Leaving,
		Entering:        c.Entering,
		BecomingInvalid: c.BecomingInvalid,
		AffectedUsers:   users,
	}, nil
}
