package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	Client *redis.Client
	Ctx    = context.Background()
)

// Slot listings are cheap to recompute; the cache only has to survive bursts
// of calendar browsing.
const slotsCacheTTL = 5 * time.Minute

func InitRedis() {
	Client = redis.NewClient(&redis.Options{
		Addr: os.Getenv("REDIS_ADDR"),
		DB:   0,
	})

	// Test connection; the slot cache degrades to a no-op without redis.
	_, err := Client.Ping(Ctx).Result()
	if err != nil {
		log.Printf("Warning: failed to connect to Redis, slot caching disabled: %v", err)
		Client = nil
		return
	}
	fmt.Println("✅ Connected to Redis")
}

func SlotsCacheKey(providerID uint, date string, durationMinutes int) string {
	return fmt.Sprintf("slots:%d:%s:%d", providerID, date, durationMinutes)
}

// GetCachedSlots returns the cached slot list for the key, if present.
func GetCachedSlots(key string) ([]string, bool) {
	if Client == nil {
		return nil, false
	}
	raw, err := Client.Get(Ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var slots []string
	if err := json.Unmarshal([]byte(raw), &slots); err != nil {
		return nil, false
	}
	return slots, true
}

func CacheSlots(key string, slots []string) {
	if Client == nil {
		return
	}
	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := Client.Set(Ctx, key, raw, slotsCacheTTL).Err(); err != nil {
		log.Printf("Failed to cache slots for %s: %v", key, err)
	}
}

// InvalidateProviderSlots drops every cached slot listing for a provider.
// Called on any rule, exception or booking mutation.
func InvalidateProviderSlots(providerID uint) {
	if Client == nil {
		return
	}
	pattern := fmt.Sprintf("slots:%d:*", providerID)
	keys, err := Client.Keys(Ctx, pattern).Result()
	if err != nil || len(keys) == 0 {
		return
	}
	if err := Client.Del(Ctx, keys...).Err(); err != nil {
		log.Printf("Failed to invalidate slot cache for provider %d: %v", providerID, err)
	}
}
