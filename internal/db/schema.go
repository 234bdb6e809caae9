package db

import (
	"fmt"

	"gorm.io/gorm"
)

// EnsureSchema creates the named Postgres schema if it doesn't exist yet.
// Called from each package's Init before AutoMigrate so gis and app_auth
// tables land in their own schemas.
func EnsureSchema(d *gorm.DB, schema string) error {
	if err := d.Exec(`CREATE SCHEMA IF NOT EXISTS "` + schema + `"`).Error; err != nil {
		return fmt.Errorf("ensure schema %s: %w", schema, err)
	}
	return nil
}
