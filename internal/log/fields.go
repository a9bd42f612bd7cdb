package log

// Field names shared across packages.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldRoute       = "route"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldMonth       = "month"
	FieldTxnID       = "transaction_id"
	FieldAmountCents = "amount_cents"
	FieldDirection   = "direction"
	FieldCategory    = "category"
	FieldSource      = "source"
	FieldMessageID   = "message_id"
	FieldOutcome     = "outcome"
)

const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentState   = "state"
	ComponentIngest  = "ingest"
	ComponentAMQP    = "amqp"
	ComponentSource  = "source"
	ComponentCLI     = "cli"
)

const (
	OpBootstrap = "bootstrap"
	OpRefresh   = "refresh"
	OpCreate    = "create"
	OpUpdate    = "update"
	OpSync      = "sync"
	OpConsume   = "consume"
	OpPublish   = "publish"
)

// LogFields builds slog attribute lists.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithTransaction(id int64, amountCents int64, direction, category string) LogFields {
	f[FieldTxnID] = id
	f[FieldAmountCents] = amountCents
	f[FieldDirection] = direction
	if category != "" {
		f[FieldCategory] = category
	}
	return f
}

func (f LogFields) WithHTTPRequest(method, path string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	return f
}

// ToSlice flattens the fields into slog's key/value form.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
