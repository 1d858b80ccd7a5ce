package errx

// Shorthand constructors for unregistered errors, one per category.
// Feature packages with a registry should mint registered codes
// instead; these exist for glue code and tests.

// Internal creates an internal error.
func Internal(message string) *Error {
	return New(message, TypeInternal)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(message, TypeValidation)
}

// NotFound creates a not-found error.
func NotFound(message string) *Error {
	return New(message, TypeNotFound)
}

// Unauthorized creates an authorization error.
func Unauthorized(message string) *Error {
	return New(message, TypeAuthorization)
}

// Conflict creates a conflict error.
func Conflict(message string) *Error {
	return New(message, TypeConflict)
}

// Business creates a business-rule error.
func Business(message string) *Error {
	return New(message, TypeBusiness)
}

// External creates an external-service error.
func External(message string) *Error {
	return New(message, TypeExternal)
}
