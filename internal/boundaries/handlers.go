package boundaries

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/GeoVista/GV-Backend/internal/auth"
	"github.com/GeoVista/GV-Backend/internal/db"
	"github.com/GeoVista/GV-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"gorm.io/datatypes"
)

// statusForError maps domain sentinels onto HTTP statuses; anything
// unrecognized is a store failure.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrInvalidGeometry):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoDraft),
		errors.Is(err, ErrRegionNotFound),
		errors.Is(err, ErrVersionNotFound),
		errors.Is(err, ErrNoPublished):
		return http.StatusNotFound
	case errors.Is(err, ErrDraftExists):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden),
		errors.Is(err, ErrPublishedVersion):
		return http.StatusForbidden
	case errors.Is(err, ErrRollbackWindowExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusForError(err))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func regionIDParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "region_id"))
	return id, err == nil
}

// GetDraftHandler returns the region's draft, or {"draft": null}.
func GetDraftHandler(w http.ResponseWriter, r *http.Request) {
	regionID, ok := regionIDParam(r)
	if !ok {
		http.Error(w, "Invalid region id", http.StatusBadRequest)
		return
	}

	draft, err := GetDraft(regionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"draft": draft})
}

// UpsertDraftHandler creates or overwrites the region's draft in place.
func UpsertDraftHandler(w http.ResponseWriter, r *http.Request) {
	regionID, ok := regionIDParam(r)
	if !ok {
		http.Error(w, "Invalid region id", http.StatusBadRequest)
		return
	}

	var input DraftInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(input.BoundaryGeoJSON) == 0 {
		http.Error(w, "boundaryGeoJSON is required", http.StatusBadRequest)
		return
	}

	actorID, _ := utils.GetUserIDFromContext(r.Context())
	draft, err := UpsertDraft(regionID, input, actorID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

// DiscardDraftHandler deletes the region's draft.
func DiscardDraftHandler(w http.ResponseWriter, r *http.Request) {
	regionID, ok := regionIDParam(r)
	if !ok {
		http.Error(w, "Invalid region id", http.StatusBadRequest)
		return
	}

	actorID, _ := utils.GetUserIDFromContext(r.Context())
	if err := DiscardDraft(regionID, actorID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "discarded"})
}

// EditVersionHandler starts a new draft from an existing version's geometry.
func EditVersionHandler(w http.ResponseWriter, r *http.Request) {
	regionID, ok := regionIDParam(r)
	if !ok {
		http.Error(w, "Invalid region id", http.StatusBadRequest)
		return
	}
	versionID, err := strconv.Atoi(chi.URLParam(r, "version_id"))
	if err != nil {
		http.Error(w, "Invalid version id", http.StatusBadRequest)
		return
	}

	actorID, _ := utils.GetUserIDFromContext(r.Context())
	draft, err := CreateDraftFromVersion(regionID, versionID, actorID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, draft)
}

// AnalyzeImpactHandler previews the consequences of publishing the draft.
func AnalyzeImpactHandler(w http.ResponseWriter, r *http.Request) {
	regionID, ok := regionIDParam(r)
	if !ok {
		http.Error(w, "Invalid region id", http.StatusBadRequest)
		return
	}

	report, err := AnalyzeImpact(regionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// PublishHandler runs the publish orchestration. Admin only.
func PublishHandler(w http.ResponseWriter, r *http.Request) {
	regionID, ok := regionIDParam(r)
	if !ok {
		http.Error(w, "Invalid region id", http.StatusBadRequest)
		return
	}

	var input struct {
		PublishReason string `json:"publishReason"`
		NotifyUsers   *bool  `json:"notifyUsers"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	notify := input.NotifyUsers == nil || *input.NotifyUsers

	actorID, _ := utils.GetUserIDFromContext(r.Context())
	result, err := Publish(regionID, input.PublishReason, notify, actorID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// UnpublishHandler archives the published boundary with no replacement.
func UnpublishHandler(w http.ResponseWriter, r *http.Request) {
	regionID, ok := regionIDParam(r)
	if !ok {
		http.Error(w, "Invalid region id", http.StatusBadRequest)
		return
	}

	actorID, _ := utils.GetUserIDFromContext(r.Context())
	archived, err := Unpublish(regionID, actorID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "unpublished",
		"archived_version": archived.VersionNumber,
	})
}

// RollbackHandler restores an archived version. Admin only.
func RollbackHandler(w http.ResponseWriter, r *http.Request) {
	regionID, ok := regionIDParam(r)
	if !ok {
		http.Error(w, "Invalid region id", http.StatusBadRequest)
		return
	}
	versionID, err := strconv.Atoi(chi.URLParam(r, "version_id"))
	if err != nil {
		http.Error(w, "Invalid version id", http.StatusBadRequest)
		return
	}

	var input struct {
		RollbackReason string `json:"rollbackReason"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	actorID, _ := utils.GetUserIDFromContext(r.Context())
	result, err := Rollback(regionID, versionID, input.RollbackReason, actorID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// DeleteVersionHandler removes one version row (guarded in the store).
func DeleteVersionHandler(w http.ResponseWriter, r *http.Request) {
	regionID, ok := regionIDParam(r)
	if !ok {
		http.Error(w, "Invalid region id", http.StatusBadRequest)
		return
	}
	versionID, err := strconv.Atoi(chi.URLParam(r, "version_id"))
	if err != nil {
		http.Error(w, "Invalid version id", http.StatusBadRequest)
		return
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	actorID, _ := utils.GetUserIDFromContext(r.Context())
	if err := DeleteVersion(regionID, versionID, input.Reason, actorID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListVersionsHandler returns the region's version history, newest first.
func ListVersionsHandler(w http.ResponseWriter, r *http.Request) {
	regionID, ok := regionIDParam(r)
	if !ok {
		http.Error(w, "Invalid region id", http.StatusBadRequest)
		return
	}

	versions, err := ListVersions(regionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, versions)
}

// PublishedBoundaryOut is one row of the published-boundaries listing.
type PublishedBoundaryOut struct {
	RegionID        int            `json:"region_id"`
	RegionName      string         `json:"region_name"`
	VersionID       int            `json:"version_id"`
	VersionNumber   int            `json:"version_number"`
	BoundaryType    string         `json:"boundary_type"`
	BoundaryGeoJSON datatypes.JSON `json:"boundary_geojson"`
	AreaSqKm        float64        `json:"area_sq_km"`
}

// ListPublishedHandler returns all currently published boundaries visible to
// the caller: everything for admins, otherwise only regions the caller holds
// an active access grant on.
func ListPublishedHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user auth.User
	if err := db.DB.First(&user, "user_id = ?", userID).Error; err != nil {
		http.Error(w, "Unauthorized: user not found", http.StatusUnauthorized)
		return
	}

	query := db.DB.Table("gis.boundary_versions AS bv").
		Select("bv.region_id, r.name AS region_name, bv.id AS version_id, bv.version_number, bv.boundary_type, bv.boundary_geo_json, bv.area_sq_km").
		Joins("JOIN gis.regions r ON r.id = bv.region_id").
		Where("bv.status = ?", StatusPublished).
		Order("bv.region_id")

	if user.Role != "admin" {
		query = query.Where(
			"bv.region_id IN (SELECT region_id FROM gis.region_access WHERE user_id = ? AND active = true)",
			userID,
		)
	}

	var out []PublishedBoundaryOut
	if err := query.Scan(&out).Error; err != nil {
		http.Error(w, "Failed to fetch boundaries: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, out)
}
