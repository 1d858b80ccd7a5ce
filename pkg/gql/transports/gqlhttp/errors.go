package gqlhttp

import (
	"net/http"

	"github.com/Abraxas-365/gqlx/pkg/errx"
)

var (
	// Error registry for the HTTP transport
	errorRegistry = errx.NewRegistry("GQLHTTP")

	ErrInvalidEndpoint = errorRegistry.Register(
		"INVALID_ENDPOINT",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Invalid GraphQL endpoint URL",
	)
)
