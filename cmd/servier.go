package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abraxas-365/gqlx/pkg/errx"
	"github.com/Abraxas-365/gqlx/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// Mock GraphQL server used as a live target for the examples. It speaks
// the same wire forms the client emits: JSON POST, multipart POST with
// the operations/map fields, and GET with query parameters.

func main() {
	// 1. Initialize Logger
	logLevel := getEnv("LOG_LEVEL", "info")
	switch logLevel {
	case "debug":
		logx.SetLevel(logx.LevelDebug)
	case "warn":
		logx.SetLevel(logx.LevelWarn)
	case "error":
		logx.SetLevel(logx.LevelError)
	default:
		logx.SetLevel(logx.LevelInfo)
	}

	logx.Info("🚀 Starting Mock GraphQL Server...")

	// 2. Create Fiber App with Config
	app := fiber.New(fiber.Config{
		AppName:               "Mock GraphQL Server",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler,
		BodyLimit:             10 * 1024 * 1024, // 10MB for file uploads
		IdleTimeout:           120 * time.Second,
	})

	// 3. Global Middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.NewString()
		},
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  getCORSOrigins(),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:  "GET, POST, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	// 4. Health Check & Info Endpoints
	app.Get("/health", healthCheckHandler)
	app.Get("/", infoHandler)

	// 5. GraphQL Endpoint
	app.Post("/graphql", graphqlPostHandler)
	app.Get("/graphql", graphqlGetHandler)
	logx.Info("✓ GraphQL routes registered")

	// 6. 404 Handler
	app.Use(notFoundHandler)

	// 7. Print Route Summary
	printRouteSummary()

	// 8. Start Server with Graceful Shutdown
	startServer(app)
}

// ============================================================================
// Handler Functions
// ============================================================================

// healthCheckHandler reports liveness
func healthCheckHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "gqlx-mock-server",
		"version": getEnv("APP_VERSION", "1.0.0"),
	})
}

// infoHandler returns basic server information
func infoHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service":     "Mock GraphQL Server",
		"version":     getEnv("APP_VERSION", "1.0.0"),
		"description": "Fixture server for exercising the gqlx client",
		"schema": fiber.Map{
			"queries":   []string{"ping", "echo(text: String!)", "slow(ms: Int!)"},
			"mutations": []string{"upload(files: [Upload!]!)"},
		},
		"endpoints": fiber.Map{
			"graphql": "/graphql",
			"health":  "/health",
		},
	})
}

// notFoundHandler handles 404 errors
func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"message":    "The requested endpoint does not exist",
		"request_id": c.Get("X-Request-ID"),
	})
}

// ============================================================================
// Error Handler
// ============================================================================

// globalErrorHandler converts internal errors to standard HTTP responses
func globalErrorHandler(c *fiber.Ctx, err error) error {
	logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"ip":         c.IP(),
		"request_id": c.Get("X-Request-ID"),
	}).Errorf("Request error: %v", err)

	// If it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error":      e.Message,
			"code":       "FIBER_ERROR",
			"status":     e.Code,
			"request_id": c.Get("X-Request-ID"),
		})
	}

	// If it's our custom errx.Error
	if e, ok := err.(*errx.Error); ok {
		response := fiber.Map{
			"error":      e.Message,
			"code":       e.Code,
			"type":       string(e.Type),
			"status":     e.HTTPStatus,
			"request_id": c.Get("X-Request-ID"),
		}

		if len(e.Details) > 0 {
			response["details"] = e.Details
		}

		if getEnv("DEBUG", "false") == "true" && e.Err != nil {
			response["underlying_error"] = e.Err.Error()
		}

		return c.Status(e.HTTPStatus).JSON(response)
	}

	// Default unknown error
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":      "Internal Server Error",
		"type":       "INTERNAL",
		"code":       "INTERNAL_ERROR",
		"message":    "An unexpected error occurred",
		"request_id": c.Get("X-Request-ID"),
	})
}

// ============================================================================
// Utility Functions
// ============================================================================

// getEnv returns an environment variable or a fallback
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getPort returns the port to listen on
func getPort() string {
	return getEnv("PORT", "8080")
}

// getCORSOrigins returns allowed CORS origins
func getCORSOrigins() string {
	return getEnv("CORS_ORIGINS", "*")
}

// printRouteSummary prints a summary of registered routes
func printRouteSummary() {
	logx.Info("📋 Route Summary:")
	logx.Info("   ├─ GraphQL: POST /graphql (json, multipart), GET /graphql")
	logx.Info("   ├─ Health: /health")
	logx.Info("   └─ Info: /")
}

// startServer starts the server with graceful shutdown
func startServer(app *fiber.App) {
	port := getPort()

	go func() {
		logx.Infof("🚀 Server listening on port %s", port)
		logx.Infof("🧪 GraphQL endpoint: http://localhost:%s/graphql", port)
		logx.Infof("💚 Health Check: http://localhost:%s/health", port)

		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	gracefulShutdown(app)
}

// gracefulShutdown handles graceful server shutdown
func gracefulShutdown(app *fiber.App) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited successfully")
}
