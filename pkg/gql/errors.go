package gql

import (
	"net/http"

	"github.com/Abraxas-365/gqlx/pkg/errx"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("GQL")

var (
	// CodeRequestFormat marks a request whose body could not be
	// serialized. It is raised before any network activity.
	CodeRequestFormat = ErrRegistry.Register("REQUEST_FORMAT", errx.TypeValidation, http.StatusBadRequest, "Request could not be serialized")

	// CodeTransport marks a network failure unrelated to cancellation.
	CodeTransport = ErrRegistry.Register("TRANSPORT", errx.TypeExternal, http.StatusBadGateway, "Network request failed")

	// CodeCancelled marks a request whose cancellation signal fired
	// before completion. The deduplication middleware absorbs this
	// outcome; it is only observable below that stage.
	CodeCancelled = ErrRegistry.Register("CANCELLED", errx.TypeConflict, http.StatusConflict, "Request was cancelled before completion")

	// CodeServerError marks a non-2xx status or a parsed response that
	// carries neither data nor errors.
	CodeServerError = ErrRegistry.Register("SERVER_ERROR", errx.TypeExternal, http.StatusBadGateway, "Server returned an unusable response")

	// CodeParse marks a response body that could not be decoded.
	CodeParse = ErrRegistry.Register("PARSE", errx.TypeExternal, http.StatusBadGateway, "Response body could not be decoded")

	// CodeContext marks a pipeline context entry that is present but
	// malformed. This is a programming error upstream, never retried.
	CodeContext = ErrRegistry.Register("CONTEXT", errx.TypeInternal, http.StatusInternalServerError, "Malformed pipeline context entry")

	// CodeNoTransport marks a pipeline without a terminal handler.
	CodeNoTransport = ErrRegistry.Register("NO_TRANSPORT", errx.TypeInternal, http.StatusInternalServerError, "Pipeline has no terminal handler")
)

// Helper constructors

func ErrRequestFormat(message string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeRequestFormat, message)
}

func ErrTransport(message string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeTransport, message)
}

func ErrCancelled(message string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeCancelled, message)
}

func ErrServer(message string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeServerError, message)
}

func ErrParse(message string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeParse, message)
}

func ErrContext(message string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeContext, message)
}

// ============================================================================
// Predicates
// ============================================================================

// IsCancellation reports whether err is the cancellation outcome.
func IsCancellation(err error) bool { return hasCode(err, CodeCancelled) }

// IsServerError reports whether err is a server-side classification
// failure: a non-2xx status or an empty execution result.
func IsServerError(err error) bool { return hasCode(err, CodeServerError) }

// IsRequestFormat reports whether err is a request serialization failure.
func IsRequestFormat(err error) bool { return hasCode(err, CodeRequestFormat) }

// IsTransport reports whether err is a network-level failure.
func IsTransport(err error) bool { return hasCode(err, CodeTransport) }

// IsParse reports whether err is a response decoding failure.
func IsParse(err error) bool { return hasCode(err, CodeParse) }

// IsContextError reports whether err is a malformed context entry.
func IsContextError(err error) bool { return hasCode(err, CodeContext) }

func hasCode(err error, code *errx.ErrorCode) bool {
	var e *errx.Error
	if errx.As(err, &e) {
		return e.Code == code.Code
	}
	return false
}
