// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package so that internal
// details (stack traces, DB errors) never reach the browser.
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Error string `json:"error"`
}

func New(msg string) *APIError {
	return &APIError{Error: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Error: "Error de validacion", Fields: fields}
}

// MarcacionError is returned when an attendance checkpoint cannot be recorded.
// YaMarcado is true only when the checkpoint already holds a value.
type MarcacionError struct {
	Error         string  `json:"error"`
	YaMarcado     bool    `json:"ya_marcado"`
	HoraExistente *string `json:"hora_existente,omitempty"`
}

// DetailsError carries a list of human readable reasons (password policy, etc.).
type DetailsError struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}
