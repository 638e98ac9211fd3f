package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/infrastructure/persistence/postgres"
)

const (
	deliveryChargeKey = "settings:delivery_charge"
	settingTTL        = 10 * time.Minute
)

// SettingsCache is a read-through cache over the settings table. Reads hit
// Redis first and fall back to Postgres on a miss; writes go to Postgres and
// invalidate the cached entry so the next read repopulates it.
type SettingsCache struct {
	repo   *postgres.SettingsRepository
	client *redis.Client
	logger *slog.Logger
}

func NewSettingsCache(repo *postgres.SettingsRepository, client *redis.Client, logger *slog.Logger) *SettingsCache {
	return &SettingsCache{
		repo:   repo,
		client: client,
		logger: logger,
	}
}

func (c *SettingsCache) DeliveryCharge(ctx context.Context) (int64, error) {
	cached, err := c.client.Get(ctx, deliveryChargeKey).Result()
	if err == nil {
		value, parseErr := strconv.ParseInt(cached, 10, 64)
		if parseErr == nil {
			return value, nil
		}
		c.logger.Warn("corrupt cached setting, falling through", "key", deliveryChargeKey, "value", cached)
	} else if !errors.Is(err, redis.Nil) {
		// Redis being down must not block checkout; serve from Postgres.
		c.logger.Warn("settings cache read failed", "key", deliveryChargeKey, "error", err)
	}

	value, err := c.repo.GetInt(ctx, "delivery_charge")
	if err != nil {
		return 0, err
	}

	if err := c.client.Set(ctx, deliveryChargeKey, strconv.FormatInt(value, 10), settingTTL).Err(); err != nil {
		c.logger.Warn("settings cache write failed", "key", deliveryChargeKey, "error", err)
	}

	return value, nil
}

func (c *SettingsCache) SetDeliveryCharge(ctx context.Context, amount int64) error {
	if err := c.repo.SetInt(ctx, "delivery_charge", amount); err != nil {
		return err
	}

	if err := c.client.Del(ctx, deliveryChargeKey).Err(); err != nil {
		c.logger.Warn("settings cache invalidation failed", "key", deliveryChargeKey, "error", err)
	}

	return nil
}
