package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/lunchperk/lunchperk-backend/internal/domain"
	"github.com/lunchperk/lunchperk-backend/internal/middleware"
	"github.com/lunchperk/lunchperk-backend/internal/service"
)

// ClaimHandler exposes the coupon claim validation endpoint consumed by the
// claim-processing flow.
type ClaimHandler struct {
	claims *service.ClaimService
}

// NewClaimHandler creates a new claim handler.
func NewClaimHandler(claims *service.ClaimService) *ClaimHandler {
	return &ClaimHandler{claims: claims}
}

// Register sets up claim routes.
func (h *ClaimHandler) Register(router fiber.Router) {
	group := router.Group("/coupons")
	group.Post("/claims/validate", h.Validate)
}

// Validate runs the claim validator and returns the decision. A blocked
// claim is a 200 with allowed=false, not an error status.
func (h *ClaimHandler) Validate(c fiber.Ctx) error {
	var body struct {
		EmployeeID string `json:"employee_id"`
		MerchantID string `json:"merchant_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if body.EmployeeID == "" || body.MerchantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "employee_id and merchant_id are required"})
	}

	decision, err := h.claims.ValidateCouponClaim(c.Context(), body.EmployeeID, body.MerchantID)
	if err != nil {
		if reqLogger := middleware.GetRequestLogger(c); reqLogger != nil {
			reqLogger.Error(domain.AuditActionAPIError, "coupon claim validation failed", err, map[string]any{
				"employee_id": body.EmployeeID,
				"merchant_id": body.MerchantID,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "validation unavailable"})
	}

	return c.JSON(decision)
}
