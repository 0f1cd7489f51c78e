package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"roofradar/internal/http/handlers"
	"roofradar/internal/repos"
	"roofradar/internal/services"
)

// Minimal app for admin guard testing
func newAdminApp(t *testing.T) (*fiber.App, *repos.UserRepo) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := repos.SeedAdmin(db, "admin@example.test", "Str0ng!Passw0rd"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Use(requestid.New())

	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	return app, userRepo
}

func TestAdminGuard(t *testing.T) {
	app, userRepo := newAdminApp(t)

	// anonymous -> redirect to login
	resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("anonymous: want redirect, got %d", resp.StatusCode)
	}

	// unknown session -> denied
	reqBad := httptest.NewRequest("GET", "/admin", nil)
	reqBad.AddCookie(&http.Cookie{Name: "sid", Value: "sid-unknown"})
	respBad, err := app.Test(reqBad)
	if err != nil {
		t.Fatal(err)
	}
	if respBad.StatusCode != http.StatusForbidden {
		t.Fatalf("unknown sid: want 403, got %d", respBad.StatusCode)
	}

	// bound admin session -> 200
	admin, err := userRepo.ByEmail("admin@example.test")
	if err != nil {
		t.Fatal(err)
	}
	if err := userRepo.BindSession("sid-admin", admin.ID); err != nil {
		t.Fatal(err)
	}
	reqAdmin := httptest.NewRequest("GET", "/admin", nil)
	reqAdmin.AddCookie(&http.Cookie{Name: "sid", Value: "sid-admin"})
	respAdmin, err := app.Test(reqAdmin)
	if err != nil {
		t.Fatal(err)
	}
	if respAdmin.StatusCode != http.StatusOK {
		t.Fatalf("admin: want 200, got %d", respAdmin.StatusCode)
	}
}

func TestLoginVerifiesPassword(t *testing.T) {
	_, userRepo := newAdminApp(t)
	authSvc := &services.AuthService{Users: userRepo}

	if _, err := authSvc.Login("sid-1", "admin@example.test", "wrong-password"); err != services.ErrBadCreds {
		t.Fatalf("want ErrBadCreds, got %v", err)
	}
	// unknown accounts fail the same way as wrong passwords
	if _, err := authSvc.Login("sid-1", "nobody@example.test", "Str0ng!Passw0rd"); err != services.ErrBadCreds {
		t.Fatalf("want ErrBadCreds for unknown account, got %v", err)
	}
	u, err := authSvc.Login("sid-1", "admin@example.test", "Str0ng!Passw0rd")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != "ADMIN" {
		t.Fatalf("want ADMIN role, got %s", u.Role)
	}

	// the session now resolves to the admin
	cur, err := authSvc.CurrentUser("sid-1")
	if err != nil || cur.ID != u.ID {
		t.Fatalf("session not bound: %v %v", cur, err)
	}

	// logout unbinds it
	if err := authSvc.Logout("sid-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := authSvc.CurrentUser("sid-1"); err == nil {
		t.Fatal("session should not resolve after logout")
	}
}
