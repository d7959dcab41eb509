// Package statistics maintains aggregate supporter numbers. Counts are
// always recomputed from supporter rows rather than incremented in place,
// so retried or out-of-order calls cannot drift the stored value.
package statistics

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/sahayoghq/sahayog/app/repository"
	"github.com/sahayoghq/sahayog/internal/pkg/cache"
)

const (
	CacheKeySupporterCount = "statistics:supporters:creator:%d"
	CacheExpiration        = 30 * time.Minute
)

// SupporterCounter recomputes and persists a creator's supporter count.
type SupporterCounter struct {
	supporters repository.SupporterRepository
	users      repository.UserRepository
	useCache   bool
}

// NewSupporterCounter creates the counter. Cache writes are best-effort.
func NewSupporterCounter(supporters repository.SupporterRepository, users repository.UserRepository) *SupporterCounter {
	return &SupporterCounter{supporters: supporters, users: users, useCache: true}
}

// DisableCache turns off the Redis layer; tests use this.
func (c *SupporterCounter) DisableCache() {
	c.useCache = false
}

// Recalculate counts active supporter rows, stores the result on the creator
// profile and refreshes the cached value.
func (c *SupporterCounter) Recalculate(creatorID uint) (int64, error) {
	count, err := c.supporters.CountActiveByCreator(creatorID)
	if err != nil {
		return 0, fmt.Errorf("count supporters of creator %d: %w", creatorID, err)
	}

	profile, err := c.users.GetCreatorProfile(creatorID)
	if err != nil {
		return count, fmt.Errorf("load creator profile %d: %w", creatorID, err)
	}
	if profile.SupporterCount != count {
		profile.SupporterCount = count
		if err := c.users.SaveCreatorProfile(profile); err != nil {
			return count, fmt.Errorf("save creator profile %d: %w", creatorID, err)
		}
	}

	if c.useCache {
		key := fmt.Sprintf(CacheKeySupporterCount, creatorID)
		if err := cache.Set(key, count, CacheExpiration); err != nil {
			log.Warnf("[Statistics] Supporter count cache write failed for creator %d: %v", creatorID, err)
		}
	}

	return count, nil
}

// CachedSupporterCount returns the cached count, falling back to a full
// recalculation on a miss.
func (c *SupporterCounter) CachedSupporterCount(creatorID uint) (int64, error) {
	if c.useCache {
		key := fmt.Sprintf(CacheKeySupporterCount, creatorID)
		if count, err := cache.GetInt64(key); err == nil {
			return count, nil
		}
	}
	return c.Recalculate(creatorID)
}
