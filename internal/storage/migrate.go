package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"lancamentos/internal/core"
	"lancamentos/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

//go:embed schema.sql
var createSchema string

// SettingsResetter clears keys in the device settings store. Some migrations
// invalidate persisted selections.
type SettingsResetter interface {
	Reset(ctx context.Context, keys ...string) error
}

// Step upgrades the store to Version. Steps without actions still count.
type Step struct {
	Version int
	Name    string
	Actions []Action
}

// Action is one schema or data change inside a step.
type Action interface {
	apply(ctx context.Context, run *migrationRun) error
	String() string
}

// AddColumn appends a column. Definition carries type, constraints and default.
type AddColumn struct {
	Table      string
	Column     string
	Definition string
}

func (a AddColumn) String() string { return "add column " + a.Table + "." + a.Column }

func (a AddColumn) apply(ctx context.Context, run *migrationRun) error {
	return run.exec(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", a.Table, a.Column, a.Definition))
}

// CreateTable runs the step's embedded script and checks that every table in
// Names exists afterwards.
type CreateTable struct {
	Names []string
}

func (a CreateTable) String() string { return "create table " + strings.Join(a.Names, ", ") }

func (a CreateTable) apply(ctx context.Context, run *migrationRun) error {
	if err := run.script(ctx); err != nil {
		return err
	}
	for _, name := range a.Names {
		if err := run.expectObject(ctx, "table", name); err != nil {
			return err
		}
	}
	return nil
}

// CreateIndex runs the step's embedded script and checks that Name exists
// afterwards.
type CreateIndex struct {
	Name string
}

func (a CreateIndex) String() string { return "create index " + a.Name }

func (a CreateIndex) apply(ctx context.Context, run *migrationRun) error {
	if err := run.script(ctx); err != nil {
		return err
	}
	return run.expectObject(ctx, "index", a.Name)
}

type DropTable struct {
	Name string
}

func (a DropTable) String() string { return "drop table " + a.Name }

func (a DropTable) apply(ctx context.Context, run *migrationRun) error {
	return run.exec(ctx, "DROP TABLE "+a.Name)
}

// BulkUpdate runs UPDATE Table SET Set WHERE Where with Args bound.
type BulkUpdate struct {
	Table string
	Set   string
	Where string
	Args  []any
}

func (a BulkUpdate) String() string { return "update " + a.Table + " where " + a.Where }

func (a BulkUpdate) apply(ctx context.Context, run *migrationRun) error {
	return run.exec(ctx, fmt.Sprintf("UPDATE %s SET %s WHERE %s", a.Table, a.Set, a.Where), a.Args...)
}

// ResetSettings clears keys in the settings store.
type ResetSettings struct {
	Keys []string
}

func (a ResetSettings) String() string { return fmt.Sprintf("reset settings %v", a.Keys) }

func (a ResetSettings) apply(ctx context.Context, run *migrationRun) error {
	if run.settings == nil {
		return errors.New("no settings store to reset")
	}
	return run.settings.Reset(ctx, a.Keys...)
}

// MigrationReport describes what a Migrate call did.
type MigrationReport struct {
	From       int
	To         int
	Created    bool
	Applied    []int
	Statements int
	Duration   time.Duration
}

// Migrator applies the step registry to a database.
type Migrator struct {
	steps    []Step
	scripts  source.Driver
	schema   string
	settings SettingsResetter
	logger   *log.Logger
}

// NewMigrator validates the step registry against the embedded scripts.
func NewMigrator(settings SettingsResetter, logger *log.Logger) (*Migrator, error) {
	m, err := newMigrator(steps, settings, logger)
	if err != nil {
		return nil, err
	}
	if m.Latest() != LatestVersion {
		return nil, fmt.Errorf("last migration step is %d but LatestVersion is %d", m.Latest(), LatestVersion)
	}
	return m, nil
}

func newMigrator(steps []Step, settings SettingsResetter, logger *log.Logger) (*Migrator, error) {
	if logger == nil {
		logger = log.Default()
	}
	scripts, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migration scripts: %w", err)
	}
	m := &Migrator{
		steps:    steps,
		scripts:  scripts,
		schema:   createSchema,
		settings: settings,
		logger:   logger.WithComponent(log.ComponentMigration),
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Latest is the version of the last registered step.
func (m *Migrator) Latest() int {
	if len(m.steps) == 0 {
		return 0
	}
	return m.steps[len(m.steps)-1].Version
}

// validate checks that steps are numbered 1..n without gaps or duplicates and
// that every script belongs to a step.
func (m *Migrator) validate() error {
	for i, s := range m.steps {
		if s.Version != i+1 {
			return fmt.Errorf("migration step %q has version %d, expected %d", s.Name, s.Version, i+1)
		}
	}
	v, err := m.scripts.First()
	for err == nil {
		if int(v) < 1 || int(v) > len(m.steps) {
			return fmt.Errorf("migration script version %d has no step", v)
		}
		v, err = m.scripts.Next(v)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("list migration scripts: %w", err)
	}
	return nil
}

func currentVersion(ctx context.Context, db DBTX) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return v, nil
}

// Run brings db to Latest. A fresh store (version 0) gets the current schema in
// one go; older stores get every step after their version, in order. All writes
// of a run share one transaction together with the new user_version, so a
// failing step leaves the store untouched. At Latest nothing is written.
func (m *Migrator) Run(ctx context.Context, db *sql.DB) (MigrationReport, error) {
	from, err := currentVersion(ctx, db)
	if err != nil {
		return MigrationReport{}, fmt.Errorf("%w: %w", core.ErrMigrationFailure, err)
	}
	latest := m.Latest()
	switch {
	case from == latest:
		m.logger.DebugContext(ctx, "Schema up to date", log.FieldVersion, from)
		return MigrationReport{From: from, To: from}, nil
	case from > latest:
		return MigrationReport{From: from, To: from}, fmt.Errorf("%w: store version %d is newer than supported version %d",
			core.ErrMigrationFailure, from, latest)
	case from == 0:
		return m.create(ctx, db, latest)
	default:
		return m.upgrade(ctx, db, from, latest)
	}
}

func (m *Migrator) create(ctx context.Context, db *sql.DB, latest int) (MigrationReport, error) {
	start := time.Now()
	report := MigrationReport{From: 0, To: latest, Created: true}
	err := WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
		run := &migrationRun{tx: tx}
		if err := run.exec(ctx, m.schema); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if err := run.setVersion(ctx, latest); err != nil {
			return err
		}
		report.Statements = run.statements
		return nil
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "Schema creation failed", log.FieldError, err)
		return MigrationReport{}, fmt.Errorf("%w: %w", core.ErrMigrationFailure, err)
	}
	report.Duration = time.Since(start)
	m.logger.InfoContext(ctx, "Schema created", log.FieldVersion, latest,
		log.FieldDuration, report.Duration.Milliseconds())
	return report, nil
}

// upgrade applies the steps in (from, to] and stores to as the new version.
func (m *Migrator) upgrade(ctx context.Context, db *sql.DB, from, to int) (MigrationReport, error) {
	start := time.Now()
	report := MigrationReport{From: from, To: to}
	m.logger.InfoContext(ctx, "Migrating schema", log.NewFields().WithOperation(log.OpMigrate).WithMigration(from, to).ToSlice()...)

	err := WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
		run := &migrationRun{tx: tx, scripts: m.scripts, settings: m.settings}
		for _, step := range m.steps {
			if step.Version <= from || step.Version > to {
				continue
			}
			run.step = step
			for _, action := range step.Actions {
				if err := action.apply(ctx, run); err != nil {
					return fmt.Errorf("step %d (%s): %s: %w", step.Version, step.Name, action, err)
				}
			}
			report.Applied = append(report.Applied, step.Version)
			m.logger.DebugContext(ctx, "Migration step applied",
				log.FieldStep, step.Version, log.FieldAction, step.Name)
		}
		if err := run.setVersion(ctx, to); err != nil {
			return err
		}
		report.Statements = run.statements
		return nil
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "Schema migration failed",
			log.NewFields().WithMigration(from, to).WithError(err).ToSlice()...)
		return MigrationReport{From: from, To: from}, fmt.Errorf("%w: %w", core.ErrMigrationFailure, err)
	}
	report.Duration = time.Since(start)
	m.logger.InfoContext(ctx, "Schema migrated",
		log.FieldFromVersion, from, log.FieldToVersion, to,
		log.FieldStatements, report.Statements,
		log.FieldDuration, report.Duration.Milliseconds())
	return report, nil
}

type migrationRun struct {
	tx         DBTX
	step       Step
	scripts    source.Driver
	settings   SettingsResetter
	statements int
}

func (r *migrationRun) exec(ctx context.Context, query string, args ...any) error {
	if _, err := r.tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	r.statements++
	return nil
}

func (r *migrationRun) setVersion(ctx context.Context, v int) error {
	// PRAGMA does not take bound parameters; v is an integer.
	if err := r.exec(ctx, fmt.Sprintf("PRAGMA user_version = %d", v)); err != nil {
		return fmt.Errorf("write user_version: %w", err)
	}
	return nil
}

// script executes the embedded script of the current step.
func (r *migrationRun) script(ctx context.Context) error {
	if r.scripts == nil {
		return fmt.Errorf("no migration scripts loaded")
	}
	body, _, err := r.scripts.ReadUp(uint(r.step.Version))
	if err != nil {
		return fmt.Errorf("read script for version %d: %w", r.step.Version, err)
	}
	defer body.Close()
	query, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read script for version %d: %w", r.step.Version, err)
	}
	return r.exec(ctx, string(query))
}

func (r *migrationRun) expectObject(ctx context.Context, kind, name string) error {
	var n int
	err := r.tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?", kind, name).Scan(&n)
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("%s %s missing after script", kind, name)
	}
	return nil
}
