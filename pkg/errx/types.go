package errx

import "net/http"

// Type is the coarse category of a failure. Every Error carries one;
// registries assign them per code.
type Type string

const (
	// TypeInternal marks bugs and broken invariants on our side.
	TypeInternal Type = "INTERNAL"

	// TypeValidation marks input that could never succeed.
	TypeValidation Type = "VALIDATION"

	// TypeAuthorization marks missing or rejected credentials.
	TypeAuthorization Type = "AUTHORIZATION"

	// TypeNotFound marks lookups of things that do not exist.
	TypeNotFound Type = "NOT_FOUND"

	// TypeConflict marks operations that lost to a concurrent one.
	TypeConflict Type = "CONFLICT"

	// TypeBusiness marks operations rejected by a domain rule.
	TypeBusiness Type = "BUSINESS"

	// TypeExternal marks failures of services we call but do not own.
	TypeExternal Type = "EXTERNAL"
)

// String returns the category name.
func (t Type) String() string {
	return string(t)
}

// status maps a category to the HTTP status used when no registered
// code overrides it.
func (t Type) status() int {
	switch t {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeAuthorization:
		return http.StatusUnauthorized
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeBusiness:
		return http.StatusUnprocessableEntity
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
