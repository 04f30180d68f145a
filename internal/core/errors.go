package core

import "errors"

// Error taxonomy shared by storage and services. Callers match with errors.Is;
// concrete errors wrap one of these together with the underlying cause.
var (
	// ErrStorageUnavailable means the database file cannot be created or opened.
	// The process cannot continue.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrMigrationFailure means a schema migration step failed. The store is left at
	// its previous version and the process must not use it.
	ErrMigrationFailure = errors.New("migration failure")

	// ErrConstraintViolation rejects a write: a missing reference or a field outside
	// its allowed range.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("not found")

	// ErrParseFailure reports an unparseable timestamp or encoded value.
	ErrParseFailure = errors.New("parse failure")
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidYear        = errors.New("invalid year")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrCategoryTooDeep    = errors.New("subcategory parent must be a top-level category")
	ErrCategorySelfParent = errors.New("category cannot be its own parent")
)

// IsFatal reports whether err belongs to the classes that must abort startup.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrMigrationFailure)
}
