package config

import (
	"net/http"

	"github.com/Abraxas-365/gqlx/pkg/errx"
)

var (
	// Error registry for configuration problems
	errorRegistry = errx.NewRegistry("CONFIG")

	ErrInvalid = errorRegistry.Register(
		"INVALID",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Invalid configuration",
	)
)
