package handlers

import (
	"github.com/jmoiron/sqlx"

	"roofradar/internal/blob"
	"roofradar/internal/config"
	"roofradar/internal/payments"
	"roofradar/internal/repos"
	"roofradar/internal/services"
)

type Deps struct {
	AvailabilityHandler *AvailabilityHandler
	SampleHandler       *SampleHandler
	CheckoutHandler     *CheckoutHandler
	WebhookHandler      *WebhookHandler
	LeadHandler         *LeadHandler
	DownloadHandler     *DownloadHandler
	AdminHandler        *AdminHandler
}

// External holds the third-party clients main wires in; tests substitute
// fakes here.
type External struct {
	Store    blob.ObjectStore
	Signer   *blob.URLSigner
	Sessions payments.SessionCreator
	Verifier payments.EventVerifier
	Mailer   services.Mailer
	Cache    *repos.StatsCache // nil ok
}

func NewDeps(db *sqlx.DB, cfg config.Config, ext External) *Deps {
	propRepo := repos.NewPropertyRepo(db)
	purchaseRepo := repos.NewPurchaseRepo(db)
	leadRepo := repos.NewLeadRepo(db)

	availSvc := services.NewAvailabilityService(purchaseRepo, ext.Cache, cfg.SalesCap)
	exportSvc := services.NewExportService(propRepo, ext.Store, ext.Signer, cfg.DownloadLinkTTL)
	notifySvc := services.NewNotifyService(ext.Mailer, cfg.OperatorEmail, cfg.ProductName, cfg.ProductCity)
	checkoutSvc := &services.CheckoutService{
		Purchases:     purchaseRepo,
		Sessions:      ext.Sessions,
		Cap:           cfg.SalesCap,
		PriceCents:    cfg.PriceCents,
		ProductName:   cfg.ProductName,
		ProductDesc:   "Commercial buildings with expiring warranties, owner contact info, and building details",
		PublicBaseURL: cfg.PublicBaseURL,
	}
	fulfillSvc := services.NewFulfillmentService(purchaseRepo, exportSvc, notifySvc, ext.Cache)

	return &Deps{
		AvailabilityHandler: &AvailabilityHandler{Avail: availSvc},
		SampleHandler:       &SampleHandler{Properties: propRepo, Leads: leadRepo, Cache: ext.Cache},
		CheckoutHandler:     &CheckoutHandler{Checkout: checkoutSvc, Purchases: purchaseRepo},
		WebhookHandler:      &WebhookHandler{Verifier: ext.Verifier, Fulfillment: fulfillSvc},
		LeadHandler:         &LeadHandler{Leads: leadRepo, Notify: notifySvc},
		DownloadHandler:     &DownloadHandler{Store: ext.Store, Signer: ext.Signer},
		AdminHandler: &AdminHandler{
			Properties: propRepo,
			Purchases:  purchaseRepo,
			Leads:      leadRepo,
			Exporter:   exportSvc,
			SalesCap:   cfg.SalesCap,
		},
	}
}
