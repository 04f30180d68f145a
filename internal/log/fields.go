package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldPath         = "path"
	FieldVersion      = "version"
	FieldFromVersion  = "from_version"
	FieldToVersion    = "to_version"
	FieldStep         = "step"
	FieldAction       = "action"
	FieldStatements   = "statements"
	FieldDuration     = "duration_ms"
	FieldEntity       = "entity"
	FieldID           = "id"
	FieldExternalID   = "external_id"
	FieldCount        = "count"
	FieldYear         = "year"
	FieldMonth        = "month"
	FieldAmount       = "amount"
	FieldInstallments = "installments"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentStorage   = "storage"
	ComponentMigration = "migration"
	ComponentEntries   = "entries"
	ComponentSettings  = "settings"
	ComponentConfig    = "config"
)

// Operations defines standard operation names
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpList    = "list"
	OpMigrate = "migrate"
	OpOpen    = "open"
	OpStartup = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithEntity adds the entity name and its local id
func (f LogFields) WithEntity(entity string, id int64) LogFields {
	f[FieldEntity] = entity
	f[FieldID] = id
	return f
}

// WithMigration adds the version span of a migration run
func (f LogFields) WithMigration(from, to int) LogFields {
	f[FieldFromVersion] = from
	f[FieldToVersion] = to
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
