// Package broadcast publishes live map events over a Redis channel. Connected
// clients are served by a separate websocket gateway that subscribes to the
// same channel; this service only ever publishes.
package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

const channel = "gis:events"

var client *redis.Client

// Event is the wire format pushed to live clients.
type Event struct {
	Type          string    `json:"type"` // "boundary_published", "boundary_rolled_back", "boundary_unpublished"
	RegionID      int       `json:"region_id"`
	RegionName    string    `json:"region_name,omitempty"`
	VersionNumber int       `json:"version_number,omitempty"`
	ItemsAffected int       `json:"items_affected"`
	Timestamp     time.Time `json:"timestamp"`
}

// Connect opens the Redis client from REDIS_ADDR/REDIS_PASS. Broadcast is
// optional: with no REDIS_ADDR the publisher stays nil and Publish becomes a
// no-op, which keeps local development Redis-free.
func Connect() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Println("REDIS_ADDR not set, live broadcast disabled")
		return
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASS"),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// Broadcast is best-effort; a dead Redis must not stop the API.
		log.Printf("broadcast: redis ping failed, live broadcast disabled: %v", err)
		_ = rdb.Close()
		return
	}

	client = rdb
	log.Println("Connected to redis broadcast channel")
}

// Publish pushes one event. Failures are logged and swallowed; callers never
// see a broadcast error.
func Publish(ctx context.Context, ev Event) {
	if client == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	raw, err := json.Marshal(ev)
	if err != nil {
		log.Printf("broadcast: marshal %s event: %v", ev.Type, err)
		return
	}
	if err := client.Publish(ctx, channel, raw).Err(); err != nil {
		log.Printf("broadcast: publish %s event for region %d: %v", ev.Type, ev.RegionID, err)
	}
}
