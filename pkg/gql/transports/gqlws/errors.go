package gqlws

import (
	"net/http"

	"github.com/Abraxas-365/gqlx/pkg/errx"
)

var (
	// Error registry for the websocket transport
	errorRegistry = errx.NewRegistry("GQLWS")

	ErrInvalidEndpoint = errorRegistry.Register(
		"INVALID_ENDPOINT",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Invalid websocket endpoint URL",
	)

	ErrNotSubscription = errorRegistry.Register(
		"NOT_SUBSCRIPTION",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Only subscription operations go over the websocket transport",
	)
)
