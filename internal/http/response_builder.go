package http

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
)

// Client-side event names delivered through the HX-Trigger header.
// Fragments listen for these to refresh themselves after a mutation.
const (
	eventExpenseCreated = "expenseCreated"
	eventExpenseDeleted = "expenseDeleted"
	eventBudgetSaved    = "budgetSaved"
	eventDraftDiscarded = "draftDiscarded"
	eventScanCompleted  = "scanCompleted"
	eventCSVImported    = "csvImported"
)

// HTMXResponseBuilder assembles HTMX responses with a fluent API,
// collecting status, headers, trigger events and body before a single
// Write.
type HTMXResponseBuilder struct {
	w          http.ResponseWriter
	statusCode int
	triggers   map[string]any
	headers    map[string]string
	body       []byte
}

// NewHTMXResponse creates a builder for the given writer.
func NewHTMXResponse(w http.ResponseWriter) *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		w:          w,
		statusCode: http.StatusOK,
		triggers:   make(map[string]any),
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code.
func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger registers a client-side event to fire. Multiple triggers are
// merged into one HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(event string, detail any) *HTMXResponseBuilder {
	b.triggers[event] = detail
	return b
}

// Header sets an additional response header.
func (b *HTMXResponseBuilder) Header(key, value string) *HTMXResponseBuilder {
	b.headers[key] = value
	return b
}

// Body sets the response body.
func (b *HTMXResponseBuilder) Body(body []byte) *HTMXResponseBuilder {
	b.body = body
	return b
}

// BodyString sets the response body from a string.
func (b *HTMXResponseBuilder) BodyString(body string) *HTMXResponseBuilder {
	b.body = []byte(body)
	return b
}

// BodyHTML sets the response body from a format string. Arguments are
// NOT escaped; callers must escape user input themselves.
func (b *HTMXResponseBuilder) BodyHTML(format string, args ...any) *HTMXResponseBuilder {
	b.body = []byte(fmt.Sprintf(format, args...))
	return b
}

// Write sends the assembled response.
func (b *HTMXResponseBuilder) Write() error {
	if len(b.triggers) > 0 {
		triggerJSON, err := json.Marshal(b.triggers)
		if err != nil {
			return fmt.Errorf("failed to marshal HX-Trigger payload: %w", err)
		}
		b.w.Header().Set("HX-Trigger", string(triggerJSON))
	}

	for key, value := range b.headers {
		b.w.Header().Set(key, value)
	}

	if b.w.Header().Get("Content-Type") == "" && len(b.body) > 0 {
		b.w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}

	b.w.WriteHeader(b.statusCode)

	if len(b.body) > 0 {
		if _, err := b.w.Write(b.body); err != nil {
			return fmt.Errorf("failed to write response body: %w", err)
		}
	}
	return nil
}

// ErrorResponse writes an inline error fragment. The message is
// HTML-escaped.
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) error {
	return NewHTMXResponse(w).
		Status(statusCode).
		BodyHTML(`<div class="error">%s</div>`, html.EscapeString(message)).
		Write()
}

// SuccessResponse writes an inline success fragment. The message is
// HTML-escaped.
func SuccessResponse(w http.ResponseWriter, message string) error {
	return NewHTMXResponse(w).
		BodyHTML(`<div class="success">%s</div>`, html.EscapeString(message)).
		Write()
}

// BadRequestError writes a 400 error fragment.
func BadRequestError(w http.ResponseWriter, message string) error {
	return ErrorResponse(w, http.StatusBadRequest, message)
}

// UnprocessableEntityError writes a 422 error fragment for validation
// failures.
func UnprocessableEntityError(w http.ResponseWriter, message string) error {
	return ErrorResponse(w, http.StatusUnprocessableEntity, message)
}

// InternalServerError writes a 500 error fragment.
func InternalServerError(w http.ResponseWriter, message string) error {
	return ErrorResponse(w, http.StatusInternalServerError, message)
}

// NotFoundError writes a 404 error fragment.
func NotFoundError(w http.ResponseWriter) error {
	return ErrorResponse(w, http.StatusNotFound, "ページが見つかりません")
}

// MethodNotAllowedError writes a 405 response with the Allow header.
func MethodNotAllowedError(w http.ResponseWriter, allow string) error {
	return NewHTMXResponse(w).
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allow).
		BodyHTML(`<div class="error">%s</div>`, "許可されていないメソッドです").
		Write()
}

// TooManyRequestsError writes a 429 response with a Retry-After hint.
func TooManyRequestsError(w http.ResponseWriter, retryAfter string) error {
	return NewHTMXResponse(w).
		Status(http.StatusTooManyRequests).
		Header("Retry-After", retryAfter).
		BodyHTML(`<div class="error">%s</div>`, "リクエストが多すぎます。しばらくしてからお試しください。").
		Write()
}
