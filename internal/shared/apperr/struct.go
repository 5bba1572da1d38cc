package apperr

type Kind string

type AppError struct {
	Kind      Kind
	Code      string            // stable machine-readable reason code (e.g. INSUFFICIENT_STOCK)
	PublicMsg string            // safe to show to the caller
	Fields    map[string]string // field-level validation errors (optional)
	Err       error             // internal error (for logs only)
}
