package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inspection-service/pkg/config"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init creates the shared redis client. The cache is optional: callers must
// tolerate a nil or unreachable client.
func Init(cfg *config.RedisConfig) {
	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// GetClient returns the shared redis client, or nil if Init was never called
func GetClient() *redis.Client {
	return client
}

// Get loads a cached JSON value into dest. The first return value reports
// whether the key was present.
func Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if client == nil {
		return false, nil
	}
	data, err := client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(data), dest)
}

// Set stores a JSON-encoded value with a TTL
func Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, data, ttl).Err()
}

// Delete removes cached keys
func Delete(ctx context.Context, keys ...string) error {
	if client == nil || len(keys) == 0 {
		return nil
	}
	return client.Del(ctx, keys...).Err()
}

// RoomCountsKey builds the cache key for a property's room photo counts
func RoomCountsKey(propertyID uint) string {
	return fmt.Sprintf("room_counts:%d", propertyID)
}
