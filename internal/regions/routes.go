package regions

import (
	"net/http"

	"github.com/GeoVista/GV-Backend/internal/auth"
	"github.com/GeoVista/GV-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes wires the /regions surface. The boundary-version subrouter and
// version-list handler come from the boundaries package; main passes them in
// so this package doesn't import it.
func SetupRoutes(boundaryVersion http.Handler, listVersions http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	sessionFetcher := auth.SessionInfo{}

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Get("/", ListRegions)
		r.Get("/infrastructure", ListInfrastructure)
		r.Post("/infrastructure", CreateInfrastructure)
		r.Get("/{region_id}", GetRegion)
		r.Get("/{region_id}/boundary-versions", listVersions)
		r.Mount("/{region_id}/boundary-version", boundaryVersion)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Use(middleware.AdminMiddleware(sessionFetcher))
		r.Post("/", CreateRegion)
		r.Patch("/{region_id}", UpdateRegion)
		r.Post("/{region_id}/access", GrantAccess)
		r.Delete("/{region_id}/access/{user_id}", RevokeAccess)
	})

	return r
}
