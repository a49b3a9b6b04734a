package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"scango/pkg/config"
)

// ErrNotConfigured is returned when neither DATABASE_URL nor DB_HOST is set.
var ErrNotConfigured = errors.New("database not configured")

func Open(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if !cfg.DatabaseConfigured() {
		return nil, ErrNotConfigured
	}
	connString := RuntimeConnString(cfg)

	// Poolers in transaction mode (PgBouncer) do not support prepared statements.
	pcfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	if usesPgBouncer(connString) {
		pcfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
		pcfg.ConnConfig.StatementCacheCapacity = 0
		pcfg.ConnConfig.DescriptionCacheCapacity = 0
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// TxBeginner is the part of *pgxpool.Pool that WithTx needs.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

func WithTx(ctx context.Context, db TxBeginner, fn func(tx pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func usesPgBouncer(connString string) bool {
	return strings.Contains(strings.ToLower(connString), "pgbouncer=true")
}

// RuntimeConnString is what the pool connects with: DATABASE_URL, else a DSN from DB_*.
func RuntimeConnString(cfg config.Config) string {
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		return cfg.DatabaseURL
	}
	return dsn(cfg.DB)
}

// migrationConnString prefers DIRECT_URL: migrations need session features a pooler may not offer.
func migrationConnString(cfg config.Config) string {
	if strings.TrimSpace(cfg.DirectURL) != "" {
		return cfg.DirectURL
	}
	return RuntimeConnString(cfg)
}

func dsn(cfg config.DBConfig) string {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + cfg.Port,
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslmode),
	}
	return u.String()
}

// Redacted hides the password of a connection string for logging.
func Redacted(connString string) string {
	u, err := url.Parse(connString)
	if err != nil || u.User == nil {
		return fmt.Sprintf("<%d-byte dsn>", len(connString))
	}
	return u.Redacted()
}
