package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/lunchperk/lunchperk-backend/internal/domain"
	"github.com/lunchperk/lunchperk-backend/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWTConfig = JWTConfig{
	Secret:    "test-secret",
	Issuer:    "lunchperk",
	ExpiresIn: time.Hour,
}

func testEmployee() *domain.Employee {
	return &domain.Employee{
		ID:        "emp-1",
		CompanyID: "co-1",
		Email:     "ana@example.com",
		Name:      "Ana",
		Role:      "admin",
		Status:    domain.EmployeeStatusActive,
	}
}

func TestGenerateAndValidateRoundTrip(t *testing.T) {
	token, err := GenerateJWT(testEmployee(), testJWTConfig)
	require.NoError(t, err)

	claims, err := validateJWT(token, testJWTConfig.Secret, testJWTConfig.Issuer)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims.Subject)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "co-1", claims.CompanyID)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig
	cfg.ExpiresIn = -time.Minute

	token, err := GenerateJWT(testEmployee(), cfg)
	require.NoError(t, err)

	_, err = validateJWT(token, cfg.Secret, cfg.Issuer)
	assert.ErrorIs(t, err, port.ErrTokenExpired)
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	token, err := GenerateJWT(testEmployee(), testJWTConfig)
	require.NoError(t, err)

	_, err = validateJWT(token, testJWTConfig.Secret, "someone-else")
	assert.ErrorIs(t, err, port.ErrTokenInvalid)
	assert.ErrorContains(t, err, "issuer")
}

func TestValidateRejectsTamperedSignature(t *testing.T) {
	token, err := GenerateJWT(testEmployee(), testJWTConfig)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + "AAAA" + parts[2][4:]

	_, err = validateJWT(tampered, testJWTConfig.Secret, testJWTConfig.Issuer)
	assert.ErrorIs(t, err, port.ErrTokenInvalid)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := GenerateJWT(testEmployee(), testJWTConfig)
	require.NoError(t, err)

	_, err = validateJWT(token, "other-secret", testJWTConfig.Issuer)
	assert.ErrorIs(t, err, port.ErrTokenInvalid)
}

func TestMiddlewareAcceptsBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/me", JWTMiddleware(testJWTConfig), func(c fiber.Ctx) error {
		uc := GetUserContext(c)
		require.NotNil(t, uc)
		return c.JSON(fiber.Map{"user_id": uc.UserID, "company_id": uc.CompanyID})
	})

	token, err := GenerateJWT(testEmployee(), testJWTConfig)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	app := fiber.New()
	app.Get("/me", JWTMiddleware(testJWTConfig), func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRoleForbidsOtherRoles(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", JWTMiddleware(testJWTConfig), RequireRole("admin"), func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	employee := testEmployee()
	employee.Role = "member"
	token, err := GenerateJWT(employee, testJWTConfig)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", JWTMiddleware(testJWTConfig), RequireRole("admin"), func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	token, err := GenerateJWT(testEmployee(), testJWTConfig)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
