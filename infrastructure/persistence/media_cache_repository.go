package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"media-aggregator/domain/repository"
	"media-aggregator/infrastructure/logger"
	"media-aggregator/infrastructure/utils"
)

// EnsureMediaCacheSchema creates the persistent cache table if not exists
func EnsureMediaCacheSchema(db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS media_cache (
        cache_key TEXT PRIMARY KEY,
        payload BYTEA NOT NULL,
        expires_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create media_cache table: %w", err)
	}

	// Used by the retention purge
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_media_cache_expires_at ON media_cache(expires_at)`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_media_cache_expires_at")
	}
	return nil
}

// MediaCacheRepository is the PostgreSQL tier-2 cache store. Rows outlive
// expires_at until PurgeExpired removes them.
type MediaCacheRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ repository.IPersistentCache = (*MediaCacheRepository)(nil)
var _ repository.IPurger = (*MediaCacheRepository)(nil)

func NewMediaCacheRepository(db *sql.DB) *MediaCacheRepository {
	return &MediaCacheRepository{db: db, now: utils.GetCurrentTime}
}

func (r *MediaCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM media_cache WHERE cache_key=$1`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (r *MediaCacheRepository) Set(ctx context.Context, key string, value []byte, expiresAt time.Time) error {
	q := `INSERT INTO media_cache(cache_key, payload, expires_at, updated_at)
          VALUES ($1,$2,$3,$4)
          ON CONFLICT (cache_key) DO UPDATE SET payload=EXCLUDED.payload, expires_at=EXCLUDED.expires_at, updated_at=EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, q, key, value, expiresAt.UTC(), r.now())
	return err
}

func (r *MediaCacheRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM media_cache WHERE cache_key=$1`, key)
	return err
}

func (r *MediaCacheRepository) DeletePrefix(ctx context.Context, prefix string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM media_cache WHERE cache_key LIKE $1 ESCAPE '\'`, escapeLike(prefix)+"%")
	return err
}

// PurgeExpired deletes rows whose expiry is before the cutoff
func (r *MediaCacheRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media_cache WHERE expires_at < $1`, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// escapeLike escapes LIKE wildcards so a key prefix matches literally
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
