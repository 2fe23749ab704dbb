package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldPeriod     = "period"
	FieldCategory   = "category"
	FieldAmountYen  = "amount_yen"
	FieldExpenseID  = "expense_id"
	FieldSessionID  = "session_id"
	FieldBackend    = "backend"
	FieldModel      = "model"
	FieldRowCount   = "row_count"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentExtractor = "extractor"
	ComponentSession   = "session"
	ComponentExpense   = "expense"
	ComponentReport    = "report"
	ComponentBudget    = "budget"
	ComponentFixedCost = "fixed_cost"
	ComponentCSV       = "csv"
	ComponentBackend   = "backend"
	ComponentTemplate  = "template"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpDelete   = "delete"
	OpList     = "list"
	OpAppend   = "append"
	OpUpsert   = "upsert"
	OpExtract  = "extract"
	OpImport   = "import"
	OpExport   = "export"
	OpRender   = "render"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
