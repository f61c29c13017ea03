package sqlstore

import (
	"context"
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
)

//go:embed migrations
var migrationsFS embed.FS

// InitDB brings the schema up to date. It is safe to call on every start:
// an already migrated database is left as is.
//
// Migrations run on a dedicated pool that is closed before InitDB returns,
// whatever the outcome.
func (s *Store) InitDB(ctx context.Context) error {
	if err := s.Ping(ctx); err != nil {
		return errors.Wrap(err, "ping before migrate")
	}

	src, err := iofs.New(migrationsFS, "migrations/"+string(s.dialect))
	if err != nil {
		return errors.Wrapf(err, "load %s migrations", s.dialect)
	}

	db, err := sql.Open(s.dialect.driverName(), s.dsn)
	if err != nil {
		_ = src.Close()
		return errors.Wrap(err, "open migration connection")
	}
	defer db.Close()

	driver, err := s.migrationDriver(db)
	if err != nil {
		_ = src.Close()
		return errors.Wrapf(err, "init %s migration driver", s.dialect)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(s.dialect), driver)
	if err != nil {
		_ = src.Close()
		_ = driver.Close()
		return errors.Wrap(err, "create migrator")
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "apply migrations")
	}
	return nil
}

// SchemaVersion reports the applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (uint, error) {
	var version uint
	err := s.db.GetContext(ctx, &version, `SELECT version FROM schema_migrations LIMIT 1`)
	return version, errors.Wrap(err, "read schema version")
}

func (s *Store) migrationDriver(db *sql.DB) (database.Driver, error) {
	switch s.dialect {
	case Postgres:
		return migratepgx.WithInstance(db, &migratepgx.Config{})
	case MySQL:
		return migratemysql.WithInstance(db, &migratemysql.Config{})
	default:
		return migratesqlite.WithInstance(db, &migratesqlite.Config{})
	}
}
