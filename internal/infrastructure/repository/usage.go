package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/promptdeck/syncengine/internal/domain"
	"github.com/promptdeck/syncengine/internal/infrastructure/database/models"
)

// UsageRepository counts a user's gated-action usage. Counts are read through
// two cache layers (an in-process TTL cache, then memcached shared across
// instances) before falling back to a database count. Staleness within the
// TTL is acceptable: the limit engine treats usage as advisory, not
// transactional.
type UsageRepository struct {
	db    *gorm.DB
	mc    *memcache.Client
	local *cache.Cache
}

const usageTTL = 30 * time.Second

func NewUsageRepository(db *gorm.DB, mc *memcache.Client) *UsageRepository {
	return &UsageRepository{
		db:    db,
		mc:    mc,
		local: cache.New(usageTTL, 5*time.Minute),
	}
}

func usageKey(userID string, action domain.GatedAction) string {
	return fmt.Sprintf("usage:%s:%s", userID, action)
}

func (r *UsageRepository) Count(ctx context.Context, userID string, action domain.GatedAction) (int, error) {
	key := usageKey(userID, action)

	if cached, ok := r.local.Get(key); ok {
		return cached.(int), nil
	}

	if item, err := r.mc.Get(key); err == nil {
		if count, err := strconv.Atoi(string(item.Value)); err == nil {
			r.local.Set(key, count, cache.DefaultExpiration)
			return count, nil
		}
	}

	count, err := r.countDB(ctx, userID, action)
	if err != nil {
		return 0, err
	}

	r.local.Set(key, count, cache.DefaultExpiration)
	err = r.mc.Set(&memcache.Item{
		Key:        key,
		Value:      []byte(strconv.Itoa(count)),
		Expiration: int32(usageTTL / time.Second),
	})
	if err != nil {
		slog.Error("failed to write usage to memcached",
			slog.String("error", err.Error()),
			slog.String("module", "repository"),
		)
	}

	return count, nil
}

// Invalidate drops a user's cached count after a gated action lands, so the
// next check reflects it without waiting for TTL expiry.
func (r *UsageRepository) Invalidate(userID string, action domain.GatedAction) {
	key := usageKey(userID, action)
	r.local.Delete(key)
	if err := r.mc.Delete(key); err != nil && err != memcache.ErrCacheMiss {
		slog.Error("failed to invalidate usage in memcached",
			slog.String("error", err.Error()),
			slog.String("module", "repository"),
		)
	}
}

func (r *UsageRepository) countDB(ctx context.Context, userID string, action domain.GatedAction) (int, error) {
	var count int64
	var err error
	switch action {
	case domain.ActionSaves:
		err = r.db.WithContext(ctx).Model(&models.Save{}).
			Where("user_id = ?", userID).Count(&count).Error
	case domain.ActionHearts:
		err = r.db.WithContext(ctx).Model(&models.Reaction{}).
			Where("user_id = ?", userID).Count(&count).Error
	case domain.ActionForks:
		err = r.db.WithContext(ctx).Model(&models.Prompt{}).
			Where("author_id = ? AND parent_id IS NOT NULL", userID).Count(&count).Error
	case domain.ActionTemplates:
		err = r.db.WithContext(ctx).Model(&models.Prompt{}).
			Where("author_id = ? AND type = ?", userID, "template").Count(&count).Error
	case domain.ActionPrivatePrompts:
		err = r.db.WithContext(ctx).Model(&models.Prompt{}).
			Where("author_id = ? AND visibility = ?", userID, string(domain.VisibilityPrivate)).Count(&count).Error
	case domain.ActionExports:
		err = r.db.WithContext(ctx).Model(&models.Export{}).
			Where("user_id = ?", userID).Count(&count).Error
	default:
		return 0, fmt.Errorf("unknown gated action: %s", action)
	}
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
