package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"foodorder/internal/handlers"
	"foodorder/internal/middleware"
	"foodorder/internal/models"
	"foodorder/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer() *services.TokenIssuer {
	return services.NewTokenIssuer("access", "refresh", 0, 0)
}

func newApp(issuer *services.TokenIssuer, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	chain := append([]fiber.Handler{middleware.AuthRequired(issuer)}, guards...)
	chain = append(chain, func(c *fiber.Ctx) error {
		p, ok := middleware.PrincipalFrom(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.SendString(p.ID + ":" + string(p.Role))
	})
	app.Get("/whoami", chain...)
	return app
}

func call(t *testing.T, app *fiber.App, authorization string) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, "", string(raw)
	}
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body.Code, ""
}

func TestAuthRequired(t *testing.T) {
	issuer := newIssuer()
	app := newApp(issuer)

	token, _, err := issuer.IssueAccess("user-1", models.RoleCustomer)
	require.NoError(t, err)

	status, _, body := call(t, app, "Bearer "+token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "user-1:CUSTOMER", body)

	status, code, _ := call(t, app, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHENTICATED", code)

	status, code, _ = call(t, app, "Token "+token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "TOKEN_INVALID", code)

	status, code, _ = call(t, app, "Bearer "+token+"tampered")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "TOKEN_INVALID", code)
}

func TestAuthRequired_ExpiredToken(t *testing.T) {
	issuer := newIssuer()
	app := newApp(issuer)

	past := issuer.WithClock(func() time.Time { return time.Now().Add(-time.Hour) })
	token, _, err := past.IssueAccess("user-1", models.RoleCustomer)
	require.NoError(t, err)

	status, code, _ := call(t, app, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "TOKEN_EXPIRED", code)
}

func TestRoleRequired(t *testing.T) {
	issuer := newIssuer()
	app := newApp(issuer, middleware.RoleRequired(models.RoleRestaurant))

	customer, _, err := issuer.IssueAccess("cust", models.RoleCustomer)
	require.NoError(t, err)
	restaurant, _, err := issuer.IssueAccess("rest", models.RoleRestaurant)
	require.NoError(t, err)

	status, code, _ := call(t, app, "Bearer "+customer)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "NOT_AUTHORIZED", code)

	status, _, body := call(t, app, "Bearer "+restaurant)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "rest:RESTAURANT", body)
}

func TestRoleRequired_WithoutAuth(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Get("/", middleware.RoleRequired(models.RoleCustomer), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRateLimiter_Handler(t *testing.T) {
	limiter := middleware.NewRateLimiter(0.001, 1)
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Get("/", limiter.Handler(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
}
