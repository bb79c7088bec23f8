package persistence

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"media-aggregator/infrastructure/configuration"

	_ "github.com/lib/pq"
)

// NewPostgreSQLDB opens and pings the PostgreSQL database that backs the
// persistent cache tier.
func NewPostgreSQLDB() (*sql.DB, error) {
	cfg := configuration.C.Database.Psql

	q := url.Values{}
	q.Set("sslmode", cfg.SSLMode)
	u := &url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}

	db, err := sql.Open("postgres", u.String())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres %s: %w", u.Redacted(), err)
	}
	return db, nil
}
