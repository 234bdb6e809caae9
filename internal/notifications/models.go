package notifications

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an insert-only row consumed by a separate delivery path
// (email/push workers read it; this service only writes and lists).
type Notification struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	Kind      string    `json:"kind"` // "boundary_update"
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string { return "gis.notifications" }
