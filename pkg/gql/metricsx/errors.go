package metricsx

import (
	"net/http"

	"github.com/Abraxas-365/gqlx/pkg/errx"
)

var (
	// Error registry for the metrics middleware
	errorRegistry = errx.NewRegistry("GQLMETRICS")

	ErrRegister = errorRegistry.Register(
		"REGISTER",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Collector registration failed",
	)
)
