package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newAuthTestApp() *fiber.App {
	app := fiber.New()
	app.Get("/user/ping", UserContextMiddleware(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("user_id")})
	})
	app.Get("/admin/ping", UserContextMiddleware(), RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestUserContextMiddleware(t *testing.T) {
	app := newAuthTestApp()

	cases := []struct {
		name       string
		userID     string
		wantStatus int
	}{
		{"missing user id", "", fiber.StatusUnauthorized},
		{"with user id", "user-1", fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/user/ping", nil)
			if tc.userID != "" {
				req.Header.Set("X-User-ID", tc.userID)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test failed: %v", err)
			}
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	app := newAuthTestApp()

	cases := []struct {
		name       string
		roles      string
		wantStatus int
	}{
		{"no roles", "", fiber.StatusForbidden},
		{"non-admin role", "user", fiber.StatusForbidden},
		{"admin role", "admin", fiber.StatusOK},
		{"admin among several", "user, admin", fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin/ping", nil)
			req.Header.Set("X-User-ID", "user-1")
			if tc.roles != "" {
				req.Header.Set("X-User-Roles", tc.roles)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test failed: %v", err)
			}
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
		})
	}
}
