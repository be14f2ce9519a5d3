package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"github.com/riskibarqy/playerlink/internal/domain/identity"
)

const defaultAliasKeyPrefix = "playerlink:alias:"

// RedisAliasCache shares resolved aliases between ingestion workers.
type RedisAliasCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisAliasCache(client *redis.Client, ttl time.Duration) *RedisAliasCache {
	return &RedisAliasCache{client: client, ttl: ttl, prefix: defaultAliasKeyPrefix}
}

// ConnectRedis opens a client and checks it with PING.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "ping redis %s", addr)
	}
	return client, nil
}

func (c *RedisAliasCache) GetAlias(ctx context.Context, source identity.Source, normalizedName string) (int64, bool, error) {
	raw, err := c.client.Get(ctx, c.key(source, normalizedName)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "get alias from redis")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, errors.Wrapf(err, "parse cached alias %q", raw)
	}
	return id, true, nil
}

// SetAlias uses SETNX so the first writer wins, matching the store's alias rule.
func (c *RedisAliasCache) SetAlias(ctx context.Context, source identity.Source, normalizedName string, identityID int64) error {
	err := c.client.SetNX(ctx, c.key(source, normalizedName), strconv.FormatInt(identityID, 10), c.ttl).Err()
	return errors.Wrap(err, "set alias in redis")
}

func (c *RedisAliasCache) key(source identity.Source, normalizedName string) string {
	return c.prefix + string(source) + ":" + normalizedName
}
