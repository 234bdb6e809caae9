package auth

import (
	"github.com/GeoVista/GV-Backend/internal/db"
	"github.com/GeoVista/GV-Backend/internal/utils"
)

type SessionInfo struct{}

func (si SessionInfo) FindSessionByToken(token string) (utils.SessionData, error) {
	var session Session

	err := db.DB.First(&session, "token = ?", token).Error
	if err != nil {
		return utils.SessionData{}, err
	}

	return utils.SessionData{
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	}, nil
}
