package main

import (
	"context"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"roofradar/internal/blob"
	"roofradar/internal/config"
	"roofradar/internal/http/handlers"
	applog "roofradar/internal/log"
	"roofradar/internal/payments"
	"roofradar/internal/repos"
	"roofradar/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	if cfg.DownloadSignKey == "" {
		log.Fatal("DOWNLOAD_SIGN_KEY must be set; delivered links are signed with it")
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	if err := repos.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal(err)
	}

	// Third-party clients
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := blob.NewMinioStore(ctx, blob.MinioConfig{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		UseSSL:    cfg.S3UseSSL,
	})
	cancel()
	if err != nil {
		log.Fatalf("object storage: %v", err)
	}

	var cache *repos.StatsCache
	if cfg.RedisAddr != "" {
		cache, err = repos.NewStatsCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Printf("[warn] redis unavailable, stats cache disabled: %v", err)
			cache = nil
		}
	}

	ext := handlers.External{
		Store:    store,
		Signer:   blob.NewURLSigner(cfg.DownloadSignKey, cfg.PublicBaseURL),
		Sessions: payments.NewStripeClient(cfg.StripeKey),
		Verifier: &payments.WebhookVerifier{Secret: cfg.StripeWebhookSecret},
		Mailer:   services.NewResendMailer(cfg.ResendKey, cfg.FromAddress),
		Cache:    cache,
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	// Templates & app
	engine := html.New("./web/templates", ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	// Webhook payloads and CSV imports stay small
	app.Server().MaxRequestBodySize = 2 << 20 // 2 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			// Stripe retries must never be throttled away.
			return strings.HasPrefix(c.Path(), "/api/v1/stripe/")
		},
	}))
	// CSRF protects the admin forms; pure-JSON API routes and the signed
	// webhook/download endpoints authenticate by other means.
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/downloads/")
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"form": c.FormValue("csrf")})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, ext)

	// Public API for the landing page
	api := app.Group("/api/v1")
	api.Get("/availability", deps.AvailabilityHandler.Check)
	api.Get("/samples", limiter.New(limiter.Config{Max: 20, Expiration: time.Minute}), deps.SampleHandler.List)
	api.Post("/checkout", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.checkout.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), deps.CheckoutHandler.Start)
	api.Post("/free-lead", deps.LeadHandler.FreeLead)
	api.Post("/waitlist", deps.LeadHandler.Waitlist)
	api.Post("/stripe/webhook", deps.WebhookHandler.HandleStripe)

	// Deliverable downloads and the post-checkout page
	app.Get("/downloads/:name", deps.DownloadHandler.Serve)
	app.Get("/success", deps.CheckoutHandler.Success)

	// Auth routes (login throttled)
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	// Admin
	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/", deps.AdminHandler.Dashboard)
	admin.Get("/properties", deps.AdminHandler.PropertiesPage)
	admin.Post("/properties", deps.AdminHandler.CreateProperty)
	// import must register ahead of the :id routes
	admin.Post("/properties/import", deps.AdminHandler.ImportProperties)
	admin.Get("/properties/:id/edit", deps.AdminHandler.PropertyEditPage)
	admin.Post("/properties/:id", deps.AdminHandler.UpdateProperty)
	admin.Post("/properties/:id/delete", deps.AdminHandler.DeleteProperty)
	admin.Get("/purchases", deps.AdminHandler.PurchasesPage)
	admin.Post("/exports", deps.AdminHandler.Export)
	admin.Get("/leads", deps.AdminHandler.LeadsPage)
	admin.Post("/leads/:id/sent", deps.AdminHandler.MarkLeadSent)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
