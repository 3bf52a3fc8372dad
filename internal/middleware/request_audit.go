package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/lunchperk/lunchperk-backend/internal/audit"
	"github.com/lunchperk/lunchperk-backend/internal/domain"
)

// RequestAudit derives a request-scoped audit logger (IP, user agent,
// request id) from the shared root and records one api_request entry per
// request. The derived logger is stashed in locals so handlers can record
// entries under the same ambient context. Recording is a queue append, so
// no goroutine is needed here.
func RequestAudit(auditor *audit.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		// Capture request data BEFORE handler execution (Fiber reuses context objects)
		method := c.Method()
		path := c.Path()

		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		reqLogger := auditor.With(domain.AuditContext{
			IP:        c.IP(),
			UserAgent: c.Get("User-Agent"),
			RequestID: requestID,
		})
		c.Locals("audit", reqLogger)

		err := c.Next()

		// Attach the authenticated user, if the JWT middleware ran.
		if uc := GetUserContext(c); uc != nil {
			reqLogger = reqLogger.With(domain.AuditContext{
				UserID:    uc.UserID,
				UserEmail: uc.Email,
				UserRole:  uc.Role,
			})
		}

		statusCode := c.Response().StatusCode()
		entry := domain.AuditEntry{
			Action:      domain.AuditActionAPIRequest,
			Severity:    domain.SeverityInfo,
			Description: method + " " + path,
			Metadata: map[string]any{
				"method":      method,
				"path":        path,
				"status":      statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			},
			Success: statusCode < fiber.StatusBadRequest,
		}
		if statusCode >= fiber.StatusInternalServerError {
			entry.Action = domain.AuditActionAPIError
			entry.Severity = domain.SeverityError
		}
		reqLogger.Log(entry)

		return err
	}
}

// GetRequestLogger returns the request-scoped audit logger, or nil when the
// middleware did not run.
func GetRequestLogger(c fiber.Ctx) *audit.Logger {
	l, ok := c.Locals("audit").(*audit.Logger)
	if !ok {
		return nil
	}
	return l
}
