package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Dialect names a supported relational backend.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(s); d {
	case Postgres, MySQL, SQLite:
		return d, nil
	default:
		return "", fmt.Errorf("unsupported database dialect %q", s)
	}
}

func (d Dialect) driverName() string {
	switch d {
	case Postgres:
		return "pgx"
	case MySQL:
		return "mysql"
	default:
		return "sqlite"
	}
}

// priceEquals is the predicate used to compare the price column with a
// canonical decimal string parameter.
func (d Dialect) priceEquals() string {
	if d == MySQL {
		return "price = CAST(? AS DECIMAL(14, 2))"
	}
	return "price = ?"
}

type Config struct {
	Dialect         Dialect
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store owns the connection pool shared by all repositories. It is created
// once at startup and closed on shutdown.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	dsn     string
}

func Open(ctx context.Context, cfg Config) (*Store, error) {
	dsn, err := normalizeDSN(cfg.Dialect, cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(cfg.Dialect.driverName(), dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", cfg.Dialect)
	}

	if cfg.Dialect == SQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "ping %s database", cfg.Dialect)
	}

	return &Store{db: db, dialect: cfg.Dialect, dsn: dsn}, nil
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction. The transaction is rolled back on
// every path that does not reach Commit, including panics in fn.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit transaction")
}

func normalizeDSN(d Dialect, dsn string) (string, error) {
	switch d {
	case Postgres:
		if _, err := pgx.ParseConfig(dsn); err != nil {
			return "", errors.Wrap(err, "parse postgres dsn")
		}
		return dsn, nil
	case MySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", errors.Wrap(err, "parse mysql dsn")
		}
		cfg.ParseTime = true
		// Report matched rows, not changed rows, so an update that
		// rewrites identical values is not mistaken for a missing row.
		cfg.ClientFoundRows = true
		return cfg.FormatDSN(), nil
	case SQLite:
		if dsn == "" {
			return "", errors.New("sqlite dsn must name a database file")
		}
		return dsn, nil
	default:
		return "", fmt.Errorf("unsupported database dialect %q", d)
	}
}
