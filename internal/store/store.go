package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migration upgrades a log created by an older schema.sql. Fresh logs get
// the same objects from schema.sql, so every statement must be idempotent.
type migration struct {
	version int
	name    string
	stmt    string
}

// migrations are applied in order to logs whose user_version is lower.
var migrations = []migration{
	{
		version: 1,
		name:    "index runs by completion",
		stmt:    `CREATE INDEX IF NOT EXISTS idx_runs_finished ON runs(finished, seq)`,
	},
}

// currentSchemaVersion is the user_version of a fully migrated log.
var currentSchemaVersion = migrations[len(migrations)-1].version

// ErrNotRunLog is returned when a read-only open finds a database that
// was never initialized as a run log.
var ErrNotRunLog = errors.New("not a verdict run log")

// pragma is a connection setting and the value PRAGMA reports once set.
type pragma struct {
	name  string
	value string
	want  string
}

var writePragmas = []pragma{
	{"journal_mode", "WAL", "wal"},
	{"synchronous", "NORMAL", "1"},
	{"busy_timeout", "5000", "5000"},
	{"foreign_keys", "ON", "1"},
}

// Read-only connections leave the journal mode alone; the writer set it.
var readPragmas = []pragma{
	{"busy_timeout", "5000", "5000"},
	{"foreign_keys", "ON", "1"},
	{"query_only", "ON", "1"},
}

// Store is the durable run log.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db       *sql.DB
	readOnly bool
}

// Option configures Open.
type Option func(*options)

type options struct {
	readOnly bool
}

// ReadOnly opens an existing log without creating or migrating it.
// Writes through the returned Store fail.
func ReadOnly() Option {
	return func(o *options) { o.readOnly = true }
}

// Open creates or opens a run log at the given path, applies the pragmas
// and brings the schema up to date.
//
// A writable log is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	dsn := path
	if o.readOnly {
		dsn = "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, readOnly: o.readOnly}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if s.readOnly {
		if err := applyPragmas(s.db, readPragmas); err != nil {
			return fmt.Errorf("failed to apply pragmas: %w", err)
		}
		version, err := userVersion(s.db)
		if err != nil {
			return err
		}
		if version == 0 {
			return ErrNotRunLog
		}
		return nil
	}

	if err := applyPragmas(s.db, writePragmas); err != nil {
		return fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(s.db); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ReadOnly reports whether the store was opened with ReadOnly.
func (s *Store) ReadOnly() bool {
	return s.readOnly
}

func applyPragmas(db *sql.DB, pragmas []pragma) error {
	for _, p := range pragmas {
		stmt := fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func userVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// runMigrations applies every migration newer than user_version, then
// records the current version.
func runMigrations(db *sql.DB) error {
	version, err := userVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// verifyPragmas checks that every pragma for the store's mode reports its
// expected value.
func (s *Store) verifyPragmas() error {
	pragmas := writePragmas
	if s.readOnly {
		pragmas = readPragmas
	}
	for _, p := range pragmas {
		var value string
		if err := s.db.QueryRow("PRAGMA " + p.name).Scan(&value); err != nil {
			return fmt.Errorf("failed to query %s: %w", p.name, err)
		}
		if value != p.want {
			return fmt.Errorf("%s = %q, expected %q", p.name, value, p.want)
		}
	}
	return nil
}
