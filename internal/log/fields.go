package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldOperation   = "operation"
	FieldCommand     = "command"
	FieldExpenseID   = "expense_id"
	FieldDate        = "date"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldRow         = "row"
	FieldBatchID     = "batch_id"
	FieldCount       = "count"
	FieldPath        = "path"
	FieldFormat      = "format"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentCLI      = "cli"
	ComponentExpense  = "expense"
	ComponentStorage  = "storage"
	ComponentImporter = "importer"
	ComponentExport   = "export"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
)

// Operations defines standard operation names
const (
	OpInsert = "insert"
	OpImport = "import"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeImportRow     = "import_row_error"
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

// WithErrorType adds the error category field
func (f LogFields) WithErrorType(errorType string) LogFields {
	f[FieldErrorType] = errorType
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(date, category string, amountCents int64) LogFields {
	f[FieldDate] = date
	f[FieldCategory] = category
	f[FieldAmountCents] = amountCents
	return f
}

// With adds an arbitrary field
func (f LogFields) With(key string, value any) LogFields {
	f[key] = value
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
