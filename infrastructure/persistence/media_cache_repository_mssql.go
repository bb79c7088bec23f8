package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"media-aggregator/domain/repository"
	"media-aggregator/infrastructure/logger"
	"media-aggregator/infrastructure/utils"
)

// EnsureMediaCacheSchemaMSSQL creates the cache table on MSSQL if not exists
func EnsureMediaCacheSchemaMSSQL(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("db is nil")
	}
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.media_cache') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.media_cache (
        cache_key NVARCHAR(450) NOT NULL PRIMARY KEY,
        payload VARBINARY(MAX) NOT NULL,
        expires_at DATETIMEOFFSET NOT NULL,
        updated_at DATETIMEOFFSET NOT NULL
    );
END`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create media_cache table (mssql): %w", err)
	}
	if _, err := db.Exec(`IF NOT EXISTS (SELECT * FROM sys.indexes WHERE name = 'idx_media_cache_expires_at' AND object_id = OBJECT_ID('dbo.media_cache'))
CREATE INDEX idx_media_cache_expires_at ON dbo.media_cache(expires_at)`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_media_cache_expires_at")
	}
	return nil
}

// MediaCacheRepositoryMSSQL is the SQL Server tier-2 cache store
type MediaCacheRepositoryMSSQL struct {
	db  *sql.DB
	now func() time.Time
}

var _ repository.IPersistentCache = (*MediaCacheRepositoryMSSQL)(nil)
var _ repository.IPurger = (*MediaCacheRepositoryMSSQL)(nil)

func NewMediaCacheRepositoryMSSQL(db *sql.DB) *MediaCacheRepositoryMSSQL {
	return &MediaCacheRepositoryMSSQL{db: db, now: utils.GetCurrentTime}
}

func (r *MediaCacheRepositoryMSSQL) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM dbo.media_cache WHERE cache_key=@p1`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (r *MediaCacheRepositoryMSSQL) Set(ctx context.Context, key string, value []byte, expiresAt time.Time) error {
	q := `MERGE dbo.media_cache AS target
USING (SELECT @p1 AS cache_key) AS src
ON (target.cache_key = src.cache_key)
WHEN MATCHED THEN UPDATE SET payload=@p2, expires_at=@p3, updated_at=@p4
WHEN NOT MATCHED THEN INSERT (cache_key, payload, expires_at, updated_at)
VALUES (@p1, @p2, @p3, @p4);`
	_, err := r.db.ExecContext(ctx, q, key, value, expiresAt.UTC(), r.now())
	return err
}

func (r *MediaCacheRepositoryMSSQL) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM dbo.media_cache WHERE cache_key=@p1`, key)
	return err
}

func (r *MediaCacheRepositoryMSSQL) DeletePrefix(ctx context.Context, prefix string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM dbo.media_cache WHERE cache_key LIKE @p1 ESCAPE '\'`, escapeLikeMSSQL(prefix)+"%")
	return err
}

func (r *MediaCacheRepositoryMSSQL) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dbo.media_cache WHERE expires_at < @p1`, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// escapeLikeMSSQL also escapes the [ ] character class syntax of T-SQL LIKE
func escapeLikeMSSQL(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '%', '_', '[', ']':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
