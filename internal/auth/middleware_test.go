package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestJWTMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/private", JWTMiddleware("secret"), func(c *fiber.Ctx) error {
		if c.Locals("user_id") == nil {
			return fiber.NewError(fiber.StatusUnauthorized)
		}
		return c.SendStatus(http.StatusOK)
	})

	svc := NewService("secret", nil)

	// missing token
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized")
	}

	// garbage token
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer nope")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized for bad token")
	}

	// signed token without a subject
	token, _ := svc.signToken("", accessTokenTTL)
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized for empty user id")
	}

	// valid token
	token, _ = svc.signToken("user-1", accessTokenTTL)
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected ok")
	}
}

func TestBearerToken(t *testing.T) {
	if _, ok := bearerToken("bad"); ok {
		t.Fatalf("expected no token")
	}
	if _, ok := bearerToken("Bearer "); ok {
		t.Fatalf("expected no token for empty credentials")
	}
	if token, ok := bearerToken("Bearer token"); !ok || token != "token" {
		t.Fatalf("expected token")
	}
	if token, ok := bearerToken("bearer token"); !ok || token != "token" {
		t.Fatalf("expected case-insensitive scheme")
	}
}
