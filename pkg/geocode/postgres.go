package geocode

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the Postgres cache needs. pgxmock
// satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresCache implements Cache on a shared Postgres instance, for fleet
// deployments where workers should not each re-geocode the same addresses.
type PostgresCache struct {
	pool    Pool
	closeFn func()
}

const postgresCacheMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	cache_key  TEXT PRIMARY KEY,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// NewPostgresCache connects a pool and ensures the cache table exists.
func NewPostgresCache(ctx context.Context, connString string) (*PostgresCache, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "geocode cache: connect postgres")
	}
	c := &PostgresCache{pool: pool, closeFn: pool.Close}
	if err := c.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return c, nil
}

// NewPostgresCacheWithPool wraps an existing pool (used by tests).
func NewPostgresCacheWithPool(pool Pool) *PostgresCache {
	return &PostgresCache{pool: pool}
}

func (c *PostgresCache) migrate(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, postgresCacheMigration)
	return eris.Wrap(err, "geocode cache: migrate postgres")
}

// Get implements Cache.
func (c *PostgresCache) Get(ctx context.Context, key string) (*RawResult, bool, error) {
	var payload []byte
	err := c.pool.QueryRow(ctx,
		`SELECT result FROM geocode_cache WHERE cache_key = $1`, key,
	).Scan(&payload)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "geocode cache: get")
	}

	var result RawResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, eris.Wrap(err, "geocode cache: decode entry")
	}
	return &result, true, nil
}

// Put implements Cache.
func (c *PostgresCache) Put(ctx context.Context, key string, result *RawResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "geocode cache: encode entry")
	}
	_, err = c.pool.Exec(ctx, `
		INSERT INTO geocode_cache (cache_key, result, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (cache_key) DO UPDATE SET
			result = EXCLUDED.result,
			created_at = now()`,
		key, payload,
	)
	return eris.Wrap(err, "geocode cache: put")
}

// Close implements Cache.
func (c *PostgresCache) Close() error {
	if c.closeFn != nil {
		c.closeFn()
	}
	return nil
}
