package notifications

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/GeoVista/GV-Backend/internal/db"
	"github.com/GeoVista/GV-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// NotifyUsers inserts one notification per user. Best effort: a failed
// insert is logged and skipped so a partial fan-out never aborts the caller.
func NotifyUsers(userIDs []string, kind, title, body string) int {
	created := 0
	for _, userID := range userIDs {
		n := Notification{
			ID:     uuid.New(),
			UserID: userID,
			Kind:   kind,
			Title:  title,
			Body:   body,
		}
		if err := db.DB.Create(&n).Error; err != nil {
			log.Printf("notifications: failed to notify user %s: %v", userID, err)
			continue
		}
		created++
	}
	return created
}

// ListNotifications returns the caller's inbox, newest first.
func ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	query := db.DB.Where("user_id = ?", userID).Order("created_at DESC")
	if r.URL.Query().Get("unread") == "true" {
		query = query.Where("read = false")
	}

	var inbox []Notification
	if err := query.Find(&inbox).Error; err != nil {
		http.Error(w, "Failed to fetch notifications: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(inbox)
}

// MarkRead flips one of the caller's notifications to read.
func MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	notifID := chi.URLParam(r, "notification_id")
	result := db.DB.Model(&Notification{}).
		Where("id = ? AND user_id = ?", notifID, userID).
		Update("read", true)
	if result.Error != nil {
		http.Error(w, "Failed to update notification: "+result.Error.Error(), http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Notification not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Marked read")
}
