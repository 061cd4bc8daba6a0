package geocode

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Cache is an external key->value store for provider responses. The
// resolver core treats it as opaque get/put; a broken cache degrades to
// live provider calls and never fails a lookup.
type Cache interface {
	Get(ctx context.Context, key string) (*RawResult, bool, error)
	Put(ctx context.Context, key string, result *RawResult) error
	Close() error
}

// CacheKey canonicalizes an address for cache lookup.
func CacheKey(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}

// CachedClient wraps a Client with a Cache.
type CachedClient struct {
	client Client
	cache  Cache
}

// NewCachedClient returns a Client that consults the cache before the
// underlying provider and stores fresh results after.
func NewCachedClient(client Client, cache Cache) *CachedClient {
	return &CachedClient{client: client, cache: cache}
}

// Geocode implements Client.
func (c *CachedClient) Geocode(ctx context.Context, address string) (*RawResult, error) {
	key := CacheKey(address)

	cached, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		zap.L().Warn("geocode: cache get failed, falling through to provider", zap.Error(err))
	} else if ok {
		return cached, nil
	}

	result, err := c.client.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	if putErr := c.cache.Put(ctx, key, result); putErr != nil {
		zap.L().Warn("geocode: cache put failed", zap.Error(putErr))
	}
	return result, nil
}

// SQLiteCache implements Cache using modernc.org/sqlite. This is the
// default single-host backend.
type SQLiteCache struct {
	db *sql.DB
}

const sqliteCacheMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	cache_key  TEXT PRIMARY KEY,
	result     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// NewSQLiteCache opens (creating if needed) a SQLite cache at the given path.
func NewSQLiteCache(dsn string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "geocode cache: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "geocode cache: exec %s", pragma)
		}
	}
	if _, err := db.Exec(sqliteCacheMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "geocode cache: migrate")
	}
	return &SQLiteCache{db: db}, nil
}

// Get implements Cache.
func (c *SQLiteCache) Get(ctx context.Context, key string) (*RawResult, bool, error) {
	var payload string
	err := c.db.QueryRowContext(ctx,
		`SELECT result FROM geocode_cache WHERE cache_key = ?`, key,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "geocode cache: get")
	}

	var result RawResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, false, eris.Wrap(err, "geocode cache: decode entry")
	}
	return &result, true, nil
}

// Put implements Cache.
func (c *SQLiteCache) Put(ctx context.Context, key string, result *RawResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "geocode cache: encode entry")
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO geocode_cache (cache_key, result) VALUES (?, ?)`,
		key, string(payload),
	)
	return eris.Wrap(err, "geocode cache: put")
}

// Close implements Cache.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
