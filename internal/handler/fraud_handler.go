package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/lunchperk/lunchperk-backend/internal/domain"
	"github.com/lunchperk/lunchperk-backend/internal/fraud"
	"github.com/lunchperk/lunchperk-backend/internal/port"
)

// FraudHandler exposes the advisory fraud detection endpoints for admin
// dashboards.
type FraudHandler struct {
	fraud *fraud.Service
}

// NewFraudHandler creates a new fraud handler.
func NewFraudHandler(svc *fraud.Service) *FraudHandler {
	return &FraudHandler{fraud: svc}
}

// Register sets up fraud routes.
func (h *FraudHandler) Register(router fiber.Router) {
	group := router.Group("/fraud")
	group.Get("/employees/:id/alerts", h.EmployeeAlerts)
	group.Get("/employees/:id/risk", h.EmployeeRisk)
	group.Get("/merchants/:id/alerts", h.MerchantAlerts)
	group.Get("/merchants/:id/risk", h.MerchantRisk)
	group.Get("/anomalies", h.SystemAnomalies)
}

// EmployeeAlerts returns current fraud alerts for an employee.
func (h *FraudHandler) EmployeeAlerts(c fiber.Ctx) error {
	alerts := h.fraud.DetectEmployeeFraud(c.Context(), c.Params("id"))
	return c.JSON(fiber.Map{
		"alerts": emptyIfNil(alerts),
		"count":  len(alerts),
	})
}

// EmployeeRisk returns the current 0-100 risk score for an employee.
func (h *FraudHandler) EmployeeRisk(c fiber.Ctx) error {
	score := h.fraud.EmployeeRiskScore(c.Context(), c.Params("id"))
	return c.JSON(fiber.Map{"risk_score": score})
}

// MerchantAlerts returns current fraud alerts for a merchant.
func (h *FraudHandler) MerchantAlerts(c fiber.Ctx) error {
	alerts, err := h.fraud.DetectMerchantFraud(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, port.ErrMerchantNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "merchant not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"alerts": emptyIfNil(alerts),
		"count":  len(alerts),
	})
}

// MerchantRisk returns the current 0-100 risk score for a merchant.
func (h *FraudHandler) MerchantRisk(c fiber.Ctx) error {
	score, err := h.fraud.MerchantRiskScore(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, port.ErrMerchantNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "merchant not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"risk_score": score})
}

// SystemAnomalies returns platform-wide anomaly alerts.
func (h *FraudHandler) SystemAnomalies(c fiber.Ctx) error {
	alerts, err := h.fraud.DetectSystemAnomalies(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"alerts": emptyIfNil(alerts),
		"count":  len(alerts),
	})
}

func emptyIfNil(alerts []domain.FraudAlert) []domain.FraudAlert {
	if alerts == nil {
		return []domain.FraudAlert{}
	}
	return alerts
}
