package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stripe/stripe-go/v82"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"roofradar/internal/blob"
	"roofradar/internal/config"
	"roofradar/internal/http/handlers"
	"roofradar/internal/payments"
	"roofradar/internal/repos"
)

const (
	testSigningKey    = "test-signing-key"
	testWebhookSecret = "whsec_test_secret"
)

// fakeStore keeps uploads in memory.
type fakeStore struct {
	objects map[string][]byte
}

func newFakeStore() *fakeStore { return &fakeStore{objects: map[string][]byte{}} }

func (s *fakeStore) Put(_ context.Context, name string, data []byte, _ string) error {
	s.objects[name] = data
	return nil
}

func (s *fakeStore) Get(_ context.Context, name string) (io.ReadCloser, error) {
	data, ok := s.objects[name]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type sentMail struct {
	to      []string
	subject string
}

type fakeMailer struct{ sent []sentMail }

func (m *fakeMailer) Send(_ context.Context, to []string, subject, _ string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject})
	return nil
}

type fakeSessions struct {
	calls int
	err   error
}

func (f *fakeSessions) NewCheckoutSession(_ *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{ID: "cs_test_fake", URL: "https://checkout.stripe.test/pay/cs_test_fake"}, nil
}

type testEnv struct {
	app     *fiber.App
	db      *sqlx.DB
	store   *fakeStore
	mailer  *fakeMailer
	stripe  *fakeSessions
	signer  *blob.URLSigner
	buys    *repos.PurchaseRepo
	salesCp int
}

// newTestApp wires the public routes with in-memory storage and fakes for
// every outbound client. The webhook verifier is the real one, keyed with the
// test secret.
func newTestApp(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Config{
		DBDSN:           ":memory:",
		PublicBaseURL:   "http://localhost:8080",
		ProductName:     "Orlando Commercial Roofing Database",
		ProductCity:     "Orlando",
		PriceCents:      49900,
		SalesCap:        2,
		OperatorEmail:   "owner@example.test",
		DownloadLinkTTL: time.Hour,
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	store := newFakeStore()
	mailer := &fakeMailer{}
	sessions := &fakeSessions{}
	signer := blob.NewURLSigner(testSigningKey, cfg.PublicBaseURL)

	deps := handlers.NewDeps(db, cfg, handlers.External{
		Store:    store,
		Signer:   signer,
		Sessions: sessions,
		Verifier: &payments.WebhookVerifier{Secret: testWebhookSecret},
		Mailer:   mailer,
	})

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Use(requestid.New())

	api := app.Group("/api/v1")
	api.Get("/availability", deps.AvailabilityHandler.Check)
	api.Get("/samples", deps.SampleHandler.List)
	api.Post("/checkout", deps.CheckoutHandler.Start)
	api.Post("/free-lead", deps.LeadHandler.FreeLead)
	api.Post("/waitlist", deps.LeadHandler.Waitlist)
	api.Post("/stripe/webhook", deps.WebhookHandler.HandleStripe)
	app.Get("/downloads/:name", deps.DownloadHandler.Serve)

	return &testEnv{
		app:     app,
		db:      db,
		store:   store,
		mailer:  mailer,
		stripe:  sessions,
		signer:  signer,
		buys:    repos.NewPurchaseRepo(db),
		salesCp: cfg.SalesCap,
	}
}

func jsonReq(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	return req
}
