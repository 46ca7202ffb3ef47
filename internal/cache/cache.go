package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "city-explorer:"

// Cache is a Redis memo for records that are already persisted. Entries never
// expire: a stored record does not change.
type Cache struct {
	client *redis.Client
}

// NewCache constructs a Cache on top of client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// LocationKey returns the memo key of the location stored under query.
// Queries match exactly, as they do in the store.
func LocationKey(query string) string {
	return keyPrefix + "location:" + query
}

// RecordsKey returns the memo key of the kind records owned by a location.
func RecordsKey(kind string, locationID int64) string {
	return keyPrefix + kind + ":" + strconv.FormatInt(locationID, 10)
}

// Get decodes the entry at key into dst.
// Returns false, nil on a miss.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("unmarshaling cached %s: %w", key, err)
	}

	return true, nil
}

// Set stores v at key as JSON without expiry.
func (c *Cache) Set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, b, 0).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}

	return nil
}

// Ping reports whether Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
