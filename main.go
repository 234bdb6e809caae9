package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/GeoVista/GV-Backend/internal/audit"
	"github.com/GeoVista/GV-Backend/internal/auth"
	"github.com/GeoVista/GV-Backend/internal/boundaries"
	"github.com/GeoVista/GV-Backend/internal/broadcast"
	"github.com/GeoVista/GV-Backend/internal/db"
	"github.com/GeoVista/GV-Backend/internal/middleware"
	"github.com/GeoVista/GV-Backend/internal/notifications"
	"github.com/GeoVista/GV-Backend/internal/regions"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()
	broadcast.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	auth.Init()
	audit.Init()
	regions.Init()
	boundaries.Init()
	notifications.Init()

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.RateLimitMiddleware(50, 100))
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes())
	r.Mount("/regions", regions.SetupRoutes(boundaries.RegionRoutes(), boundaries.ListVersionsHandler))
	r.Mount("/boundaries", boundaries.SetupRoutes())
	r.Mount("/notifications", notifications.SetupRoutes())

	fmt.Println("Server listening on port :" + port + "...")

	http.ListenAndServe("0.0.0.0:"+port, r)
}
