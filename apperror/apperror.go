// Package apperror defines a centralized system for application-specific errors.
// Every service in foodgram returns *AppError values so the HTTP layer can pick a
// status code and a stable response body without inspecting error strings.
// It's similar in concept to Nest.js's Exception Filters, where you can catch specific
// error types and customize the HTTP response.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType is an enumeration (using `iota`) for different categories of application errors.
type ErrorType int

const (
	// UnknownError is for unspecified errors
	UnknownError ErrorType = iota
	// DatabaseError represents an error originating from the database
	DatabaseError
	// ConfigError represents an error related to application configuration
	ConfigError
	// AuthError represents an authentication error (missing or invalid credentials)
	AuthError
	// UnauthorizedError represents an authorization error (authenticated, but not allowed)
	UnauthorizedError
	// NotFoundError represents a resource not found error
	NotFoundError
	// ValidationError represents an input validation error
	ValidationError
	// BadRequestError represents a generic bad request
	BadRequestError
	// InternalError represents a generic internal server error
	InternalError
	// MigrationError represents an error during database migrations
	MigrationError
	// ConflictError represents a duplicate edge (favorite, cart entry, follow) or an
	// already-taken unique value.
	ConflictError
	// DuplicateAccountError is a conflict on account identity (username/email). It maps to
	// 409 while edge conflicts keep the 400 the public API has always returned.
	DuplicateAccountError
)

// AppError is a custom error type for the application.
// Code is a stable machine-readable identifier ("empty_ingredients", "already_added", ...),
// Fields carries per-field messages for validation failures.
type AppError struct {
	Type    ErrorType
	Code    string
	Message string
	Fields  map[string][]string
	Err     error // Underlying error
}

// Error returns the string representation of the error, satisfying the `error` interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error so `errors.Is` and `errors.As` can walk the chain.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *AppError carrying the same non-empty Code.
// This lets callers compare against package-level sentinels such as
// recipes.ErrEmptyIngredients even after the error was wrapped or copied.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || t.Code == "" {
		return false
	}
	return e.Code == t.Code
}

// StatusCode returns the HTTP status code appropriate for the error type
func (e *AppError) StatusCode() int {
	switch e.Type {
	case DatabaseError, ConfigError, InternalError, MigrationError:
		return http.StatusInternalServerError
	case AuthError:
		return http.StatusUnauthorized
	case UnauthorizedError:
		// 401 is for "who are you?", 403 is for "I know who you are and the answer is no".
		return http.StatusForbidden
	case NotFoundError:
		return http.StatusNotFound
	case ValidationError, BadRequestError, ConflictError:
		return http.StatusBadRequest
	case DuplicateAccountError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WithField returns a copy of e with message recorded under field.
func (e *AppError) WithField(field, message string) *AppError {
	cp := *e
	cp.Fields = make(map[string][]string, len(e.Fields)+1)
	for k, v := range e.Fields {
		cp.Fields[k] = append([]string(nil), v...)
	}
	cp.Fields[field] = append(cp.Fields[field], message)
	return &cp
}

// NewAppError creates a new AppError. This is a generic constructor.
func NewAppError(errType ErrorType, message string, underlyingError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     underlyingError,
	}
}

// Coded builds a sentinel-style error with a stable code. Domain packages declare their
// failure conditions with it, e.g.
//
//	var ErrAlreadyAdded = apperror.Coded(apperror.ConflictError, "already_added", "", "recipe is already added")
//
// When field is non-empty the message is also reported under that field.
func Coded(errType ErrorType, code, field, message string) *AppError {
	e := &AppError{Type: errType, Code: code, Message: message}
	if field != "" {
		e.Fields = map[string][]string{field: {message}}
	}
	return e
}

// Constructor functions for specific error types.
// `NewDatabaseError("message", err)` reads better than `NewAppError(DatabaseError, "message", err)`.

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(message string, underlyingError error) *AppError {
	return NewAppError(DatabaseError, message, underlyingError)
}

// NewConfigError creates a new ConfigError
func NewConfigError(message string, underlyingError error) *AppError {
	return NewAppError(ConfigError, message, underlyingError)
}

// NewAuthError creates a new AuthError (for authentication issues)
func NewAuthError(message string, underlyingError error) *AppError {
	return NewAppError(AuthError, message, underlyingError)
}

// NewUnauthorizedError creates a new UnauthorizedError (for authorization issues)
func NewUnauthorizedError(message string, underlyingError error) *AppError {
	return NewAppError(UnauthorizedError, message, underlyingError)
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(message string, underlyingError error) *AppError {
	return NewAppError(NotFoundError, message, underlyingError)
}

// NewValidationError creates a new ValidationError
func NewValidationError(message string, underlyingError error) *AppError {
	return NewAppError(ValidationError, message, underlyingError)
}

// NewFieldsError creates a ValidationError carrying per-field messages.
func NewFieldsError(message string, fields map[string][]string) *AppError {
	e := NewAppError(ValidationError, message, nil)
	e.Code = "invalid"
	e.Fields = fields
	return e
}

// NewBadRequestError creates a new BadRequestError
func NewBadRequestError(message string, underlyingError error) *AppError {
	return NewAppError(BadRequestError, message, underlyingError)
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, underlyingError error) *AppError {
	return NewAppError(InternalError, message, underlyingError)
}

// NewMigrationError creates a new MigrationError
func NewMigrationError(message string, underlyingError error) *AppError {
	return NewAppError(MigrationError, message, underlyingError)
}

// NewConflictError creates a new ConflictError
func NewConflictError(message string, underlyingError error) *AppError {
	return NewAppError(ConflictError, message, underlyingError)
}

// NewDuplicateAccountError creates a new DuplicateAccountError
func NewDuplicateAccountError(message string, underlyingError error) *AppError {
	return NewAppError(DuplicateAccountError, message, underlyingError)
}

// ErrorResponse represents a generic error response payload for API clients.
type ErrorResponse struct {
	Error  string              `json:"error" example:"A description of the error"`
	Code   string              `json:"code,omitempty" example:"already_added"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// ToResponse converts an AppError to an ErrorResponse suitable for API responses.
// Only the user-facing parts are exposed, never the wrapped `Err`.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message, Code: e.Code, Fields: e.Fields}
}

// FromError attempts to convert a generic error to an *AppError.
// Wrapped AppErrors are found as well.
func FromError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Helper functions to check error types.

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	return hasType(err, NotFoundError)
}

// IsAuthError checks if an error is an AuthError (authentication problem)
func IsAuthError(err error) bool {
	return hasType(err, AuthError)
}

// IsUnauthorizedError checks if an error is an UnauthorizedError (authorization problem)
func IsUnauthorizedError(err error) bool {
	return hasType(err, UnauthorizedError)
}

// IsValidationError checks if an error is a Validation error
func IsValidationError(err error) bool {
	return hasType(err, ValidationError)
}

// IsConflictError checks if an error is a Conflict error
func IsConflictError(err error) bool {
	return hasType(err, ConflictError) || hasType(err, DuplicateAccountError)
}

func hasType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}
