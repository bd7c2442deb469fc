package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"dealflow/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func newAdminApp(adminEmail string, jwtManager *auth.JWTManager) *fiber.App {
	app := fiber.New()
	app.Get("/admin", AdminMiddleware(adminEmail, jwtManager, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestAdminMiddleware(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	valid, err := jwtManager.GenerateToken("ops@example.org")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	foreign, err := jwtManager.GenerateToken("someone@example.org")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	cases := []struct {
		name    string
		admin   string
		headers map[string]string
		status  int
	}{
		{name: "email header", admin: "ops@example.org", headers: map[string]string{"X-Admin-Email": "OPS@example.org"}, status: 200},
		{name: "wrong email header", admin: "ops@example.org", headers: map[string]string{"X-Admin-Email": "x@example.org"}, status: 401},
		{name: "no credentials", admin: "ops@example.org", status: 401},
		{name: "bearer token", admin: "ops@example.org", headers: map[string]string{"Authorization": "Bearer " + valid}, status: 200},
		{name: "token for other email", admin: "ops@example.org", headers: map[string]string{"Authorization": "Bearer " + foreign}, status: 401},
		{name: "garbage token", admin: "ops@example.org", headers: map[string]string{"Authorization": "Bearer nope"}, status: 401},
		{name: "admin not configured", admin: "", headers: map[string]string{"X-Admin-Email": "ops@example.org"}, status: 401},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newAdminApp(tc.admin, jwtManager)
			req := httptest.NewRequest("GET", "/admin", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, resp.StatusCode)
			}
		})
	}
}
