// Package cache is the optional redis warm-start cache for the operator
// console: the last seen queue snapshot and account snapshots are written
// through so a restarted console can render immediately, before its first
// fetch. The backend stays authoritative; anything read from here is
// replaced by the next snapshot.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"QRKara/config"
	"QRKara/logger"
	"QRKara/model"
)

const (
	queueKey         = "qrkara:queue:last"
	accountKeyPrefix = "qrkara:account:"
	defaultTTL       = 12 * time.Hour
)

// Cache wraps the redis client. A nil *Cache is valid and does nothing, so
// callers never branch on whether redis is configured.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// Connect opens the warm-start cache. Returns nil (no cache) when no redis
// host is configured; fails fast when one is configured but unreachable.
func Connect(cfg *config.Config) (*Cache, error) {
	if cfg.RedisHost == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("warm-start cache connected",
		logger.String("addr", fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort)))
	return &Cache{rdb: rdb, ttl: defaultTTL}, nil
}

// Close releases the redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

// SaveQueue writes through the latest queue snapshot.
func (c *Cache) SaveQueue(ctx context.Context, snap model.QueueSnapshot) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, queueKey, raw, c.ttl).Err(); err != nil {
		logger.Debug("queue cache write failed", logger.ErrorField(err))
	}
}

// LoadQueue returns the last cached snapshot, if any.
func (c *Cache) LoadQueue(ctx context.Context) (*model.QueueSnapshot, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, queueKey).Bytes()
	if err != nil {
		return nil, false
	}
	var snap model.QueueSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, false
	}
	return &snap, true
}

// SaveAccount writes through one table's account snapshot.
func (c *Cache) SaveAccount(ctx context.Context, account model.TableAccount) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(account)
	if err != nil {
		return
	}
	key := fmt.Sprintf("%s%d", accountKeyPrefix, account.TableID)
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logger.Debug("account cache write failed", logger.ErrorField(err))
	}
}

// LoadAccounts returns every cached account snapshot.
func (c *Cache) LoadAccounts(ctx context.Context) []model.TableAccount {
	if c == nil {
		return nil
	}
	keys, err := c.rdb.Keys(ctx, accountKeyPrefix+"*").Result()
	if err != nil || len(keys) == 0 {
		return nil
	}
	out := make([]model.TableAccount, 0, len(keys))
	for _, key := range keys {
		raw, err := c.rdb.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var account model.TableAccount
		if err := json.Unmarshal(raw, &account); err != nil {
			continue
		}
		out = append(out, account)
	}
	return out
}
