package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/lunchperk/lunchperk-backend/internal/audit"
	"github.com/lunchperk/lunchperk-backend/internal/domain"
)

// AuditHandler handles admin audit log endpoints.
type AuditHandler struct {
	auditor *audit.Logger
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(auditor *audit.Logger) *AuditHandler {
	return &AuditHandler{auditor: auditor}
}

// Register sets up audit routes.
func (h *AuditHandler) Register(router fiber.Router) {
	group := router.Group("/audit")
	group.Get("/logs", h.ListLogs)
}

// ListLogs returns audit entries with optional filtering, newest first.
func (h *AuditHandler) ListLogs(c fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	q := domain.AuditQuery{
		UserID:     c.Query("user_id"),
		Action:     c.Query("action"),
		Resource:   c.Query("resource"),
		ResourceID: c.Query("resource_id"),
		Severity:   domain.AuditSeverity(c.Query("severity")),
		Limit:      limit,
		Offset:     offset,
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid 'from' timestamp"})
		}
		q.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid 'to' timestamp"})
		}
		q.To = t
	}

	entries, err := h.auditor.Query(c.Context(), q)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"logs":  entries,
		"count": len(entries),
	})
}
