package notifications

import (
	"net/http"

	"github.com/GeoVista/GV-Backend/internal/auth"
	"github.com/GeoVista/GV-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := auth.SessionInfo{}

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Get("/", ListNotifications)
		r.Post("/{notification_id}/read", MarkRead)
	})

	return r
}
