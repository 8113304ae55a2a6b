package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver (cgo)
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // sqlite driver (pure Go)

	"coursys/courselib/pkg/catalog"
	"coursys/courselib/pkg/store"
)

// Supported driver names.
const (
	DriverSQLite3  = "sqlite3"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains configuration for the SQL storage backend.
type Config struct {
	// Driver is the database/sql driver name: sqlite3, sqlite or postgres.
	Driver string

	// DSN is the driver-specific data source name.
	DSN string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables write-ahead logging (sqlite drivers only).
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked
	// (sqlite drivers only).
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultConfig returns the default SQL store configuration.
func DefaultConfig() *Config {
	return &Config{
		Driver:       DriverSQLite,
		DSN:          "data/coursys.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// Store implements store.Store on a SQL database.
type Store struct {
	db      *sqlx.DB
	config  *Config
	builder sq.StatementBuilderType
	logger  *slog.Logger
}

var _ store.Store = (*Store)(nil)

// New opens the database described by config.
func New(config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	logger := slog.Default().With("component", "store.sql", "driver", config.Driver)

	var placeholder sq.PlaceholderFormat
	switch config.Driver {
	case DriverSQLite3, DriverSQLite:
		placeholder = sq.Question
	case DriverPostgres:
		placeholder = sq.Dollar
	default:
		return nil, store.NewStorageError(config.Driver, "open",
			fmt.Errorf("unsupported driver %q (supported: %s, %s, %s)",
				config.Driver, DriverSQLite3, DriverSQLite, DriverPostgres))
	}

	db, err := sqlx.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, store.NewStorageError(config.Driver, "open", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	s := &Store{
		db:      db,
		config:  config,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
		logger:  logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQL storage initialized",
		"max_open_conns", config.MaxOpenConns,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize checks connectivity and applies sqlite pragmas.
func (s *Store) initialize() error {
	if err := s.db.Ping(); err != nil {
		return store.NewStorageError(s.config.Driver, "ping", err)
	}

	if !s.isSQLite() {
		return nil
	}

	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return store.NewStorageError(s.config.Driver, "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled")
	}

	if s.config.BusyTimeout > 0 {
		pragma := fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())
		if _, err := s.db.Exec(pragma); err != nil {
			return store.NewStorageError(s.config.Driver, "set_busy_timeout", err)
		}
	}

	return nil
}

func (s *Store) isSQLite() bool {
	return s.config.Driver == DriverSQLite3 || s.config.Driver == DriverSQLite
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return store.NewStorageError(s.config.Driver, "ping", err)
	}
	return nil
}

// CheckSchema checks that the table of every model exists and can be read.
func (s *Store) CheckSchema(ctx context.Context, models []*catalog.Model) error {
	for _, m := range models {
		if err := checkIdent(m.Table); err != nil {
			return store.NewStorageError(s.config.Driver, "check_schema", err)
		}
		query := s.builder.Select("1").From(m.Table).Limit(1)
		sqlStr, args, err := query.ToSql()
		if err != nil {
			return store.NewStorageError(s.config.Driver, "check_schema", errors.Wrap(err, "failed to build query"))
		}
		rows, err := s.db.QueryxContext(ctx, sqlStr, args...)
		if err != nil {
			return store.NewStorageError(s.config.Driver, "check_schema",
				errors.Wrapf(err, "table %s of %s is not readable", m.Table, m.Name))
		}
		rows.Close()
	}
	return nil
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Migrate executes the schema DDL of every model that declares one.
func (s *Store) Migrate(ctx context.Context, models []*catalog.Model) error {
	for _, m := range models {
		if m.Schema == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.Schema); err != nil {
			return store.NewStorageError(s.config.Driver, "migrate",
				errors.Wrapf(err, "failed to create schema for %s", m.Name))
		}
		s.logger.Debug("schema applied", "model", m.Name, "table", m.Table)
	}
	return nil
}

// Insert stores one row for model. fields must include the primary key
// unless the database assigns it.
func (s *Store) Insert(ctx context.Context, model *catalog.Model, fields map[string]any) error {
	values := make(map[string]any, len(fields))
	for col, v := range fields {
		if err := checkIdent(col); err != nil {
			return store.NewStorageError(s.config.Driver, "insert", err)
		}
		values[col] = normalizeValue(v)
	}
	query := s.builder.Insert(model.Table).SetMap(values)
	if _, err := s.execBuilder(ctx, query); err != nil {
		return store.NewStorageError(s.config.Driver, "insert",
			errors.Wrapf(err, "failed to insert into %s", model.Table))
	}
	return nil
}

// Count returns the number of records of model matching cond.
func (s *Store) Count(ctx context.Context, model *catalog.Model, cond store.Condition) (int64, error) {
	pred, err := s.predicate(model, cond)
	if err != nil {
		return 0, store.NewStorageError(s.config.Driver, "count", err)
	}

	sqlStr, args, err := s.builder.Select("COUNT(*)").From(model.Table).Where(pred).ToSql()
	if err != nil {
		return 0, store.NewStorageError(s.config.Driver, "count", errors.Wrap(err, "failed to build count query"))
	}

	var count int64
	if err := s.db.QueryRowxContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, store.NewStorageError(s.config.Driver, "count",
			errors.Wrapf(err, "failed to count %s", model.Table))
	}
	return count, nil
}

// Select returns the records of model matching cond, ordered by primary key.
func (s *Store) Select(ctx context.Context, model *catalog.Model, cond store.Condition) ([]store.Record, error) {
	pred, err := s.predicate(model, cond)
	if err != nil {
		return nil, store.NewStorageError(s.config.Driver, "select", err)
	}

	sqlStr, args, err := s.builder.Select("*").From(model.Table).Where(pred).OrderBy(model.Key()).ToSql()
	if err != nil {
		return nil, store.NewStorageError(s.config.Driver, "select", errors.Wrap(err, "failed to build select query"))
	}

	rows, err := s.db.QueryxContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, store.NewStorageError(s.config.Driver, "select",
			errors.Wrapf(err, "failed to select from %s", model.Table))
	}
	defer rows.Close()

	var records []store.Record
	for rows.Next() {
		fields := make(map[string]any)
		if err := rows.MapScan(fields); err != nil {
			return nil, store.NewStorageError(s.config.Driver, "select", errors.Wrap(err, "failed to scan row"))
		}
		for k, v := range fields {
			if b, ok := v.([]byte); ok {
				fields[k] = string(b)
			}
		}
		records = append(records, store.Record{ID: fields[model.Key()], Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStorageError(s.config.Driver, "select", err)
	}
	return records, nil
}

// Delete removes every record of model matching cond.
func (s *Store) Delete(ctx context.Context, model *catalog.Model, cond store.Condition) (int64, error) {
	pred, err := s.predicate(model, cond)
	if err != nil {
		return 0, store.NewStorageError(s.config.Driver, "delete", err)
	}

	result, err := s.execBuilder(ctx, s.builder.Delete(model.Table).Where(pred))
	if err != nil {
		return 0, store.NewStorageError(s.config.Driver, "delete",
			errors.Wrapf(err, "failed to delete from %s", model.Table))
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, store.NewStorageError(s.config.Driver, "delete", err)
	}
	return count, nil
}

// DeleteRecord removes the record of model whose primary key is id.
func (s *Store) DeleteRecord(ctx context.Context, model *catalog.Model, id any) error {
	query := s.builder.Delete(model.Table).Where(sq.Eq{model.Key(): id})
	if _, err := s.execBuilder(ctx, query); err != nil {
		return store.NewStorageError(s.config.Driver, "delete_record",
			errors.Wrapf(err, "failed to delete %s %v", model.Name, id))
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return store.NewStorageError(s.config.Driver, "close", err)
	}
	s.logger.Info("SQL storage closed")
	return nil
}

// execBuilder renders a squirrel statement and executes it.
func (s *Store) execBuilder(ctx context.Context, b sq.Sqlizer) (sql.Result, error) {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}
	s.logger.Debug("exec", "sql", sqlStr, "args", len(args))
	return s.db.ExecContext(ctx, sqlStr, args...)
}
