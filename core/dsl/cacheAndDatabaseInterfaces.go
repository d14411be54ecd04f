package dsl

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix    = "dice_roll:"
	diceRollListKey   = "dice_roll_keys"
	defaultExpiration = 24 * time.Hour
)

// ErrNotFound is returned by a Cache or Database that holds nothing for a key.
var ErrNotFound = errors.New("statistics not found")

// Cache holds statistics for recently rolled expressions, keyed by canonical text.
type Cache interface {
	Get(ctx context.Context, key string) (*CachedResult, error)
	Set(ctx context.Context, key string, value *CachedResult) error
	// Keys lists cached expressions, most recently used first.
	Keys(ctx context.Context) ([]string, error)
	// Lock takes a named lock for ttl. It reports false if someone else holds it.
	Lock(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Ping(ctx context.Context) error
}

// Database is the durable copy of the statistics cache.
type Database interface {
	Get(ctx context.Context, key string) (*CachedResult, error)
	Set(ctx context.Context, key string, value *CachedResult) error
	Ping(ctx context.Context) error
}

type DragonflyCache struct {
	client          *redis.Client
	maxCacheEntries int
}

func NewDragonflyCache(client *redis.Client, maxCacheEntries int) *DragonflyCache {
	return &DragonflyCache{
		client:          client,
		maxCacheEntries: maxCacheEntries,
	}
}

func (c *DragonflyCache) Get(ctx context.Context, key string) (*CachedResult, error) {
	cacheKey := cacheKeyPrefix + key
	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var result CachedResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	// Move this key to the front of the list (most recently used)
	pipe := c.client.TxPipeline()
	pipe.LRem(ctx, diceRollListKey, 0, cacheKey)
	pipe.LPush(ctx, diceRollListKey, cacheKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	return &result, nil
}

// evictScript deletes every entry past the size limit and trims the list to match.
const evictScript = `
	local keys = redis.call('LRANGE', KEYS[1], ARGV[1], -1)
	if #keys > 0 then
		redis.call('DEL', unpack(keys))
	end
	redis.call('LTRIM', KEYS[1], 0, ARGV[1] - 1)
	return #keys
`

func (c *DragonflyCache) Set(ctx context.Context, key string, value *CachedResult) error {
	cacheKey := cacheKeyPrefix + key
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, cacheKey, data, defaultExpiration)
	pipe.LRem(ctx, diceRollListKey, 0, cacheKey)
	pipe.LPush(ctx, diceRollListKey, cacheKey)
	pipe.Eval(ctx, evictScript, []string{diceRollListKey}, c.maxCacheEntries)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *DragonflyCache) Keys(ctx context.Context) ([]string, error) {
	keys, err := c.client.LRange(ctx, diceRollListKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, cacheKeyPrefix)
	}
	return keys, nil
}

func (c *DragonflyCache) Lock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, name, time.Now().Unix(), ttl).Result()
}

func (c *DragonflyCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(pool *pgxpool.Pool) *PostgresDB {
	return &PostgresDB{pool: pool}
}

// Migrate creates the statistics table if it does not exist yet.
func (db *PostgresDB) Migrate(ctx context.Context) error {
	_, err := db.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS dice_results (
			expression TEXT PRIMARY KEY,
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

func (db *PostgresDB) Get(ctx context.Context, key string) (*CachedResult, error) {
	var data []byte
	err := db.pool.QueryRow(ctx, "SELECT data FROM dice_results WHERE expression = $1", key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var result CachedResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (db *PostgresDB) Set(ctx context.Context, key string, value *CachedResult) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		"INSERT INTO dice_results (expression, data) VALUES ($1, $2) ON CONFLICT (expression) DO UPDATE SET data = $2, updated_at = now()",
		key, data)
	return err
}

func (db *PostgresDB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}
