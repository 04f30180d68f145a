package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"lancamentos/internal/core"
	"lancamentos/internal/log"
)

// DBFileName is the fixed name of the database file inside the data directory.
const DBFileName = "lancamentos.sqlite"

// Handle is an open store. It is safe for concurrent use; SQLite serializes
// writers.
type Handle struct {
	db       *sql.DB
	path     string
	migrator *Migrator
	logger   *log.Logger
}

type options struct {
	logger   *log.Logger
	settings SettingsResetter
}

type Option func(*options)

func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSettings wires the settings store reset by migrations.
func WithSettings(s SettingsResetter) Option {
	return func(o *options) { o.settings = s }
}

const dsnPragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// dsn builds a file URI for the absolute form of path, escaping characters
// such as '#' and '?' that would otherwise end the path. The pragmas apply to
// every pooled connection.
func dsn(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: dsnPragmas}
	return u.String(), nil
}

// Open opens or creates the database file at path. It does not migrate.
func Open(ctx context.Context, path string, opts ...Option) (*Handle, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	logger := o.logger.WithComponent(log.ComponentStorage)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create db directory: %w", core.ErrStorageUnavailable, err)
		}
	}

	source, err := dsn(path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve db path: %w", core.ErrStorageUnavailable, err)
	}
	db, err := sql.Open("sqlite", source)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite database: %w", core.ErrStorageUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %w", core.ErrStorageUnavailable, err)
	}

	migrator, err := NewMigrator(o.settings, o.logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", core.ErrMigrationFailure, err)
	}

	logger.InfoContext(ctx, "Database opened", log.FieldOperation, log.OpOpen, log.FieldPath, path)
	return &Handle{db: db, path: path, migrator: migrator, logger: logger}, nil
}

// DB exposes the underlying pool.
func (h *Handle) DB() *sql.DB { return h.db }

func (h *Handle) Path() string { return h.path }

// CurrentVersion reads the persisted schema version, 0 for a new file.
func (h *Handle) CurrentVersion(ctx context.Context) (int, error) {
	v, err := currentVersion(ctx, h.db)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	return v, nil
}

// Migrate brings the schema to LatestVersion. See Migrator.Run.
func (h *Handle) Migrate(ctx context.Context) (MigrationReport, error) {
	return h.migrator.Run(ctx, h.db)
}

// Repositories returns repositories bound to the handle's pool.
func (h *Handle) Repositories() *Repositories {
	return NewRepositories(h.db, h.logger)
}

func (h *Handle) Close() error {
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}

// Gate opens and migrates the store on first use. Every later call returns the
// same handle, or the same error if initialization failed. Concurrent first
// calls block until the single initialization finishes. The handle lives for the
// rest of the process.
type Gate struct {
	path   string
	opts   []Option
	once   sync.Once
	handle *Handle
	err    error
}

func NewGate(path string, opts ...Option) *Gate {
	return &Gate{path: path, opts: opts}
}

// Handle returns the initialized store. A non-nil error is fatal
// (core.IsFatal): the store must not be used.
func (g *Gate) Handle(ctx context.Context) (*Handle, error) {
	g.once.Do(func() {
		h, err := Open(ctx, g.path, g.opts...)
		if err != nil {
			g.err = err
			return
		}
		if _, err := h.Migrate(ctx); err != nil {
			h.Close()
			g.err = err
			return
		}
		g.handle = h
	})
	return g.handle, g.err
}
