package errors

import (
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrAccountExists is returned when registering an email that is already taken.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound is returned when no account matches an email or id.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidToken is returned when no account holds the presented token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrAccountNotConfirmed is returned when a password reset is requested
	// for an account whose email was never confirmed.
	ErrAccountNotConfirmed = errors.New("account not confirmed")
	// ErrInvalidCredentials is returned for every failed login, whatever the cause.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// FieldError is a user-correctable problem with one form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field that failed validation.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Messages are the ones shown to users.
func MapErrorToHTTP(err error) *HTTPError {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return NewHTTPError(http.StatusBadRequest, "Revisa los datos del formulario", "VALIDATION_FAILED")
	case errors.Is(err, ErrAccountExists):
		return NewHTTPError(http.StatusConflict, "El email ya está registrado", "ACCOUNT_EXISTS")
	case errors.Is(err, ErrAccountNotFound):
		return NewHTTPError(http.StatusNotFound, "El email no está registrado", "ACCOUNT_NOT_FOUND")
	case errors.Is(err, ErrAccountNotConfirmed):
		return NewHTTPError(http.StatusForbidden, "Tu cuenta no ha sido confirmada, te reenviamos el email de confirmación", "ACCOUNT_NOT_CONFIRMED")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusNotFound, "El token no es válido", "INVALID_TOKEN")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, "Usuario o contraseña inválido", "INVALID_CREDENTIALS")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}

// Messages returns the user-facing messages for err: one per field for a
// ValidationError, otherwise the mapped message.
func Messages(err error) []FieldError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Fields
	}
	return []FieldError{{Message: MapErrorToHTTP(err).Message}}
}

// IsExpected reports whether err belongs to the domain taxonomy and can be
// rendered back to the user instead of being treated as a server failure.
func IsExpected(err error) bool {
	return MapErrorToHTTP(err).StatusCode != http.StatusInternalServerError
}
