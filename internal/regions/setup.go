package regions

import (
	"log"

	"github.com/GeoVista/GV-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "gis"); err != nil {
		log.Fatal("Failed to ensure schema gis: ", err)
	}

	if err := db.DB.AutoMigrate(&Region{}, &RegionAccess{}, &InfrastructureItem{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
