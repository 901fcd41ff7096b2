// Package api implements the HTTP JSON API for the plate planner.
package api

import (
	"crypto/rand"
	"fmt"
	"log"
	"net/http"
	"time"

	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/platewell/qpcr-go/internal/conf"
	"github.com/platewell/qpcr-go/internal/logging"
	"github.com/platewell/qpcr-go/internal/observability"
)

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Settings *conf.Settings

	logger         *log.Logger
	apiLogger      *slog.Logger
	apiLevelVar    *slog.LevelVar
	apiLoggerClose func() error
	metrics        *observability.Metrics
	startTime      time.Time
}

// New creates a new API controller and registers all routes under /api/v2.
func New(e *echo.Echo, settings *conf.Settings, metrics *observability.Metrics) (*Controller, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}

	c := &Controller{
		Echo:      e,
		Settings:  settings,
		metrics:   metrics,
		logger:    log.New(log.Writer(), "API: ", log.LstdFlags),
		startTime: time.Now(),
	}

	// Initialize structured logging for API operations. Without a configured
	// log path the API logs through the shared service logger instead.
	c.apiLevelVar = new(slog.LevelVar)
	if settings.WebServer.Debug {
		c.apiLevelVar.Set(slog.LevelDebug)
	}
	if settings.WebServer.LogPath != "" {
		logger, closeFunc, err := logging.NewFileLogger(
			settings.WebServer.LogPath, "api", c.apiLevelVar, logging.FileRotation{})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize API log file: %w", err)
		}
		c.apiLogger = logger
		c.apiLoggerClose = closeFunc
	} else {
		c.apiLogger = logging.ForService("api")
	}

	c.Group = e.Group("/api/v2")
	c.Group.Use(c.LoggingMiddleware())
	c.initRoutes()

	return c, nil
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	routeInitializers := []struct {
		name string
		fn   func()
	}{
		{"plan routes", c.initPlanRoutes},
		{"export routes", c.initExportRoutes},
	}
	for _, initializer := range routeInitializers {
		c.Debug("Initializing %s...", initializer.name)
		initializer.fn()
	}
}

// Shutdown closes the API log file. Safe to call more than once.
func (c *Controller) Shutdown() {
	if c.apiLoggerClose != nil {
		if err := c.apiLoggerClose(); err != nil {
			c.logger.Printf("Failed to close API log file: %v", err)
		}
		c.apiLoggerClose = nil
	}
	c.Debug("API Controller shutting down")
}

// HealthCheckResponse is the payload of the health endpoint.
type HealthCheckResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// HealthCheck returns service liveness information.
// @Summary Health check
// @Description Returns service status and uptime
// @Tags health
// @Produce json
// @Success 200 {object} HealthCheckResponse
// @Router /api/v2/health [get]
func (c *Controller) HealthCheck(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, HealthCheckResponse{
		Status:        "ok",
		Version:       c.Settings.Version,
		UptimeSeconds: int64(time.Since(c.startTime).Seconds()),
	})
}

// LoggingMiddleware creates a middleware function that logs API requests
func (c *Controller) LoggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()

			err := next(ctx)

			if c.apiLogger == nil {
				return err
			}

			req := ctx.Request()
			res := ctx.Response()

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", res.Status),
				slog.String("ip", ctx.RealIP()),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}

			c.apiLogger.LogAttrs(req.Context(), slog.LevelInfo, "API Request", attrs...)

			return err
		}
	}
}

// Error response structure
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Unique identifier for tracking this error
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	correlationID := generateCorrelationID()

	var errorStr string
	if err != nil {
		errorStr = err.Error()
	} else {
		errorStr = message
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: correlationID,
	}
}

// generateCorrelationID creates a unique identifier for error tracking using
// cryptographic randomness.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError constructs and returns an appropriate error response
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)
	ip := ctx.RealIP()

	c.logger.Printf("API Error [%s] from %s: %s: %v", errorResp.CorrelationID, ip, message, err)

	if c.apiLogger != nil {
		var errorStr string
		if err != nil {
			errorStr = err.Error()
		} else {
			errorStr = message
		}

		c.apiLogger.Error("API Error",
			"correlation_id", errorResp.CorrelationID,
			"message", message,
			"error", errorStr,
			"code", code,
			"path", ctx.Request().URL.Path,
			"method", ctx.Request().Method,
			"ip", ip,
		)
	}

	return ctx.JSON(code, errorResp)
}

// Debug logs debug messages when debug mode is enabled
func (c *Controller) Debug(format string, v ...any) {
	if c.Settings.WebServer.Debug {
		msg := fmt.Sprintf(format, v...)
		c.logger.Printf("[DEBUG] %s", msg)

		if c.apiLogger != nil {
			c.apiLogger.Debug(msg)
		}
	}
}

// logAPIRequest is a helper to log API requests with common context fields.
func (c *Controller) logAPIRequest(ctx echo.Context, level slog.Level, msg string, args ...any) {
	if c.apiLogger == nil {
		return
	}

	baseAttrs := []any{
		"path", ctx.Request().URL.Path,
		"ip", ctx.RealIP(),
	}
	baseAttrs = append(baseAttrs, args...)

	c.apiLogger.Log(ctx.Request().Context(), level, msg, baseAttrs...)
}
