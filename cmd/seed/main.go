package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/GeoVista/GV-Backend/internal/geometry"
	"github.com/goccy/go-yaml"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// CLI flags
var (
	fixturePath = flag.String("fixtures", "", "Path to the YAML fixture file (required)")
	dsn         = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	actor       = flag.String("actor", "seed", "Actor id recorded on created boundary versions")
	dryRun      = flag.Bool("dry-run", false, "Parse + validate only; no DB writes")
	confirm     = flag.Bool("confirm", false, "Required to perform DB writes")
	advisoryKey = flag.Int64("advisory-lock", 0, "Optional Postgres advisory lock key (e.g., 424242). 0 = disabled")
)

// Fixture contract
// regions are keyed by code; parent references a sibling region's code and
// boundary, when present, becomes the region's published version 1.

type Fixture struct {
	Regions []RegionFixture `yaml:"regions"`
	Items   []ItemFixture   `yaml:"items"`
}

type RegionFixture struct {
	Name       string         `yaml:"name"`
	Code       string         `yaml:"code"`
	RegionType string         `yaml:"regionType"`
	Parent     string         `yaml:"parent"`
	Boundary   map[string]any `yaml:"boundary"`
}

type ItemFixture struct {
	Name      string  `yaml:"name"`
	Category  string  `yaml:"category"`
	Longitude float64 `yaml:"longitude"`
	Latitude  float64 `yaml:"latitude"`
	Region    string  `yaml:"region"`
}

type Counts struct {
	Regions  int64
	Items    int64
	Versions int64
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *fixturePath == "" {
		fatalf("--fixtures is required")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	fix, err := loadFixture(*fixturePath)
	if err != nil {
		fatalf("fixture error: %v", err)
	}
	if err := validateFixture(fix); err != nil {
		fatalf("fixture validation failed: %v", err)
	}

	fmt.Printf("Loaded %d regions and %d items from %s\n", len(fix.Regions), len(fix.Items), *fixturePath)

	if *dryRun {
		printPlan(fix)
		fmt.Println("Dry run complete. No changes made.")
		return
	}

	if !*confirm {
		fatalf("Refusing to run without --confirm. Add --dry-run to preview.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	conn, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer conn.Close()

	if err := conn.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	tx, err := conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		fatalf("begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op if already committed
	}()

	// Optional advisory lock to avoid concurrent runs
	if *advisoryKey != 0 {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, *advisoryKey); err != nil {
			fatalf("advisory lock: %v", err)
		}
	}

	before, err := countAll(ctx, tx)
	if err != nil {
		fatalf("pre-count: %v", err)
	}
	fmt.Printf("Before: regions=%d items=%d versions=%d\n", before.Regions, before.Items, before.Versions)

	regionIDs, err := upsertRegions(ctx, tx, fix.Regions)
	if err != nil {
		fatalf("upsert regions: %v", err)
	}
	fmt.Printf("Upserted %d regions\n", len(regionIDs))

	seeded, err := seedBoundaries(ctx, tx, fix.Regions, regionIDs)
	if err != nil {
		fatalf("seed boundaries: %v", err)
	}
	fmt.Printf("Seeded %d published boundaries\n", seeded)

	if err := insertItems(ctx, tx, fix.Items, regionIDs); err != nil {
		fatalf("insert items: %v", err)
	}

	after, err := countAll(ctx, tx)
	if err != nil {
		fatalf("post-count: %v", err)
	}
	fmt.Printf("After:  regions=%d items=%d versions=%d\n", after.Regions, after.Items, after.Versions)

	if err := tx.Commit(); err != nil {
		fatalf("commit: %v", err)
	}
	fmt.Println("Seed complete ✅")
}

func loadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fix Fixture
	if err := yaml.Unmarshal(raw, &fix); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &fix, nil
}

func validateFixture(fix *Fixture) error {
	codes := map[string]bool{}
	for i, r := range fix.Regions {
		if r.Name == "" || r.Code == "" {
			return fmt.Errorf("region %d: name and code are required", i)
		}
		if codes[r.Code] {
			return fmt.Errorf("duplicate region code %q", r.Code)
		}
		codes[r.Code] = true
		if r.Boundary != nil {
			if _, err := parseBoundary(r.Boundary); err != nil {
				return fmt.Errorf("region %q boundary: %w", r.Code, err)
			}
		}
	}
	for _, r := range fix.Regions {
		if r.Parent != "" && !codes[r.Parent] {
			return fmt.Errorf("region %q: unknown parent code %q", r.Code, r.Parent)
		}
	}
	for i, it := range fix.Items {
		if it.Name == "" {
			return fmt.Errorf("item %d: name is required", i)
		}
		if it.Latitude < -90 || it.Latitude > 90 || it.Longitude < -180 || it.Longitude > 180 {
			return fmt.Errorf("item %q: coordinates out of range", it.Name)
		}
		if it.Region != "" && !codes[it.Region] {
			return fmt.Errorf("item %q: unknown region code %q", it.Name, it.Region)
		}
	}
	return nil
}

// parseBoundary re-encodes the YAML node as JSON and runs it through the
// same geometry validation the API uses.
func parseBoundary(node map[string]any) (json.RawMessage, error) {
	raw, err := json.Marshal(node)
	if err != nil {
		return nil, err
	}
	if _, err := geometry.ParseGeometry(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func printPlan(fix *Fixture) {
	for _, r := range fix.Regions {
		suffix := ""
		if r.Boundary != nil {
			suffix = " [with boundary]"
		}
		fmt.Printf("  region %-12s %s%s\n", r.Code, r.Name, suffix)
	}
	for _, it := range fix.Items {
		fmt.Printf("  item   %-12s %s (%.4f, %.4f)\n", it.Region, it.Name, it.Latitude, it.Longitude)
	}
}

func countAll(ctx context.Context, tx *sql.Tx) (Counts, error) {
	var c Counts
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM gis.regions`).Scan(&c.Regions); err != nil {
		return c, err
	}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM gis.infrastructure_items`).Scan(&c.Items); err != nil {
		return c, err
	}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM gis.boundary_versions`).Scan(&c.Versions); err != nil {
		return c, err
	}
	return c, nil
}

// upsertRegions runs two passes so parents can be declared in any order.
func upsertRegions(ctx context.Context, tx *sql.Tx, rows []RegionFixture) (map[string]int, error) {
	ids := make(map[string]int, len(rows))
	for _, r := range rows {
		var id int
		err := tx.QueryRowContext(ctx, `
			INSERT INTO gis.regions (name, code, region_type, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
			ON CONFLICT (code) DO UPDATE
			SET name = EXCLUDED.name, region_type = EXCLUDED.region_type, updated_at = now()
			RETURNING id`,
			r.Name, r.Code, r.RegionType).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("region %q: %w", r.Code, err)
		}
		ids[r.Code] = id
	}
	for _, r := range rows {
		if r.Parent == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE gis.regions SET parent_region_id = $1 WHERE id = $2`,
			ids[r.Parent], ids[r.Code]); err != nil {
			return nil, fmt.Errorf("region %q parent: %w", r.Code, err)
		}
	}
	return ids, nil
}

// seedBoundaries publishes version 1 for fixture regions that declare a
// boundary and don't already have any versions.
func seedBoundaries(ctx context.Context, tx *sql.Tx, rows []RegionFixture, ids map[string]int) (int, error) {
	seeded := 0
	for _, r := range rows {
		if r.Boundary == nil {
			continue
		}
		regionID := ids[r.Code]

		var existing int64
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM gis.boundary_versions WHERE region_id = $1`,
			regionID).Scan(&existing); err != nil {
			return seeded, err
		}
		if existing > 0 {
			fmt.Printf("  skipping boundary for %s (versions already exist)\n", r.Code)
			continue
		}

		raw, err := parseBoundary(r.Boundary)
		if err != nil {
			return seeded, fmt.Errorf("region %q: %w", r.Code, err)
		}
		geom, err := geometry.ParseGeometry(raw)
		if err != nil {
			return seeded, fmt.Errorf("region %q: %w", r.Code, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO gis.boundary_versions
				(region_id, version_number, boundary_geo_json, boundary_type, vertex_count,
				 area_sq_km, status, created_by, created_at, published_by, published_at,
				 change_reason, source)
			VALUES ($1, 1, $2, $3, $4, $5, 'published', $6, now(), $6, now(), 'Seeded fixture', 'seed')`,
			regionID, string(raw), geom.Type, geometry.VertexCount(geom),
			geometry.AreaSqKm(geom), *actor); err != nil {
			return seeded, fmt.Errorf("region %q version: %w", r.Code, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO gis.region_boundaries
				(region_id, boundary_geo_json, is_active, updated_by, updated_at)
			VALUES ($1, $2, true, $3, now())`,
			regionID, string(raw), *actor); err != nil {
			return seeded, fmt.Errorf("region %q legacy boundary: %w", r.Code, err)
		}
		seeded++
	}
	return seeded, nil
}

func insertItems(ctx context.Context, tx *sql.Tx, rows []ItemFixture, ids map[string]int) error {
	for _, it := range rows {
		var regionID *int
		if it.Region != "" {
			id := ids[it.Region]
			regionID = &id
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO gis.infrastructure_items
				(name, category, latitude, longitude, region_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())`,
			it.Name, it.Category, it.Latitude, it.Longitude, regionID); err != nil {
			return fmt.Errorf("item %q: %w", it.Name, err)
		}
	}
	return nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
