package boundaries

import (
	"net/http"

	"github.com/GeoVista/GV-Backend/internal/auth"
	"github.com/GeoVista/GV-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// RegionRoutes is mounted by the regions router at
// /regions/{region_id}/boundary-version; the region_id URL param carries
// through the mount.
func RegionRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := auth.SessionInfo{}

	r.Get("/draft", GetDraftHandler)
	r.Post("/draft", UpsertDraftHandler)
	r.Delete("/draft", DiscardDraftHandler)
	r.Post("/draft/analyze-impact", AnalyzeImpactHandler)
	r.Post("/{version_id}/edit", EditVersionHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminMiddleware(sessionFetcher))
		r.Post("/draft/publish", PublishHandler)
		r.Post("/unpublish", UnpublishHandler)
		r.Post("/{version_id}/rollback", RollbackHandler)
		r.Delete("/{version_id}", DeleteVersionHandler)
	})

	return r
}

// SetupRoutes serves the cross-region read surface under /boundaries.
func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := auth.SessionInfo{}

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Get("/published", ListPublishedHandler)
	})

	return r
}
