package regions

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/GeoVista/GV-Backend/internal/audit"
	"github.com/GeoVista/GV-Backend/internal/db"
	"github.com/GeoVista/GV-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// ListRegions returns all regions, optionally filtered by a case-folded name
// search (?q=) and parent (?parent_id=).
func ListRegions(w http.ResponseWriter, r *http.Request) {
	var regionList []Region

	query := db.DB.Model(&Region{}).Order("id")

	if parentStr := r.URL.Query().Get("parent_id"); parentStr != "" {
		parentID, err := strconv.Atoi(parentStr)
		if err != nil {
			http.Error(w, "Invalid parent_id", http.StatusBadRequest)
			return
		}
		query = query.Where("parent_region_id = ?", parentID)
	}

	if err := query.Find(&regionList).Error; err != nil {
		http.Error(w, "Failed to fetch regions: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Unicode case folding so "münchen" matches "München"; done in memory
	// since the region table is small.
	if q := r.URL.Query().Get("q"); q != "" {
		needle := foldCaser.String(q)
		filtered := make([]Region, 0, len(regionList))
		for _, region := range regionList {
			if strings.Contains(foldCaser.String(region.Name), needle) {
				filtered = append(filtered, region)
			}
		}
		regionList = filtered
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(regionList)
}

// GetRegion returns a single region with its direct children.
func GetRegion(w http.ResponseWriter, r *http.Request) {
	regionID := chi.URLParam(r, "region_id")

	var region Region
	if err := db.DB.First(&region, "id = ?", regionID).Error; err != nil {
		http.Error(w, "Region not found", http.StatusNotFound)
		return
	}

	var children []Region
	db.DB.Where("parent_region_id = ?", region.ID).Order("id").Find(&children)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"region":   region,
		"children": children,
	})
}

// CreateRegion inserts a new region (admin only; enforced at the route).
func CreateRegion(w http.ResponseWriter, r *http.Request) {
	var input Region
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.Name == "" {
		http.Error(w, "Region name is required", http.StatusBadRequest)
		return
	}

	if input.ParentRegionID != nil {
		var parent Region
		if err := db.DB.First(&parent, "id = ?", *input.ParentRegionID).Error; err != nil {
			http.Error(w, "Parent region not found", http.StatusBadRequest)
			return
		}
	}

	input.ID = 0
	if err := db.DB.Create(&input).Error; err != nil {
		http.Error(w, "Failed to create region: "+err.Error(), http.StatusInternalServerError)
		return
	}

	actorID, _ := utils.GetUserIDFromContext(r.Context())
	audit.Record(actorID, "region_created", "region", strconv.Itoa(input.ID), input.Name, nil)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(input)
}

// UpdateRegion patches name/type/parent of a region.
func UpdateRegion(w http.ResponseWriter, r *http.Request) {
	regionID := chi.URLParam(r, "region_id")

	var region Region
	if err := db.DB.First(&region, "id = ?", regionID).Error; err != nil {
		http.Error(w, "Region not found", http.StatusNotFound)
		return
	}

	var input struct {
		Name           *string `json:"name"`
		RegionType     *string `json:"region_type"`
		ParentRegionID *int    `json:"parent_region_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.RegionType != nil {
		updates["region_type"] = *input.RegionType
	}
	if input.ParentRegionID != nil {
		updates["parent_region_id"] = *input.ParentRegionID
	}
	if len(updates) == 0 {
		http.Error(w, "Nothing to update", http.StatusBadRequest)
		return
	}

	if err := db.DB.Model(&region).Updates(updates).Error; err != nil {
		http.Error(w, "Failed to update region: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(region)
}

// GrantAccess creates (or re-activates) a user's access grant on a region.
func GrantAccess(w http.ResponseWriter, r *http.Request) {
	regionIDStr := chi.URLParam(r, "region_id")
	regionID, err := strconv.Atoi(regionIDStr)
	if err != nil {
		http.Error(w, "Invalid region id", http.StatusBadRequest)
		return
	}

	var input struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	var region Region
	if err := db.DB.First(&region, "id = ?", regionID).Error; err != nil {
		http.Error(w, "Region not found", http.StatusNotFound)
		return
	}

	actorID, _ := utils.GetUserIDFromContext(r.Context())

	var grant RegionAccess
	err = db.DB.Where("user_id = ? AND region_id = ?", input.UserID, regionID).First(&grant).Error
	if err == nil {
		db.DB.Model(&grant).Updates(map[string]any{"active": true, "granted_by": actorID})
	} else {
		grant = RegionAccess{
			UserID:    input.UserID,
			RegionID:  regionID,
			GrantedBy: actorID,
			Active:    true,
		}
		if err := db.DB.Create(&grant).Error; err != nil {
			http.Error(w, "Failed to grant access: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	audit.Record(actorID, "region_access_granted", "region", regionIDStr, input.UserID, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(grant)
}

// RevokeAccess deactivates a grant. The row is kept for audit purposes.
func RevokeAccess(w http.ResponseWriter, r *http.Request) {
	regionID := chi.URLParam(r, "region_id")
	userID := chi.URLParam(r, "user_id")

	result := db.DB.Model(&RegionAccess{}).
		Where("user_id = ? AND region_id = ?", userID, regionID).
		Update("active", false)
	if result.Error != nil {
		http.Error(w, "Failed to revoke access: "+result.Error.Error(), http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Grant not found", http.StatusNotFound)
		return
	}

	actorID, _ := utils.GetUserIDFromContext(r.Context())
	audit.Record(actorID, "region_access_revoked", "region", regionID, userID, nil)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "revoked"})
}

// ListInfrastructure returns items, filtered by region (?region_id=) or
// orphaned state (?orphaned=true).
func ListInfrastructure(w http.ResponseWriter, r *http.Request) {
	query := db.DB.Model(&InfrastructureItem{}).Order("id")

	if regionStr := r.URL.Query().Get("region_id"); regionStr != "" {
		regionID, err := strconv.Atoi(regionStr)
		if err != nil {
			http.Error(w, "Invalid region_id", http.StatusBadRequest)
			return
		}
		query = query.Where("region_id = ?", regionID)
	}
	if r.URL.Query().Get("orphaned") == "true" {
		query = query.Where("region_id IS NULL")
	}

	var items []InfrastructureItem
	if err := query.Find(&items).Error; err != nil {
		http.Error(w, "Failed to fetch items: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

// CreateInfrastructure inserts a point asset owned by the caller.
func CreateInfrastructure(w http.ResponseWriter, r *http.Request) {
	var input InfrastructureItem
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.Latitude < -90 || input.Latitude > 90 || input.Longitude < -180 || input.Longitude > 180 {
		http.Error(w, "Coordinates out of range", http.StatusBadRequest)
		return
	}

	ownerID, _ := utils.GetUserIDFromContext(r.Context())
	input.ID = 0
	input.OwnerID = ownerID

	if err := db.DB.Create(&input).Error; err != nil {
		http.Error(w, "Failed to create item: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(input)
}
