package authx

import (
	"net/http"

	"github.com/Abraxas-365/gqlx/pkg/errx"
)

var (
	// Error registry for the auth middleware
	errorRegistry = errx.NewRegistry("GQLAUTH")

	ErrEmptyToken = errorRegistry.Register(
		"EMPTY_TOKEN",
		errx.TypeAuthorization,
		http.StatusUnauthorized,
		"Token source returned an empty token",
	)
)
