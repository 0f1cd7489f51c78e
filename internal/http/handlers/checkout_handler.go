package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"roofradar/internal/domain"
	applog "roofradar/internal/log"
	"roofradar/internal/repos"
	"roofradar/internal/services"
	"roofradar/internal/validate"
)

type CheckoutHandler struct {
	Checkout  *services.CheckoutService
	Purchases *repos.PurchaseRepo
}

type checkoutRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
}

// Start handles POST /api/v1/checkout: validate buyer fields, reserve a copy,
// return the hosted payment redirect.
func (h *CheckoutHandler) Start(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	name, ok := validate.Name(req.Name)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "name"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}
	email, ok := validate.Email(req.Email)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "email"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "enter a valid email address"})
	}
	company, ok := validate.Company(req.Company)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "company"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "company is required"})
	}
	phone, ok := validate.Phone(req.Phone)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "phone"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "enter a valid phone number"})
	}

	sessionID, url, err := h.Checkout.Start(domain.Buyer{Name: name, Email: email, Company: company, Phone: phone})
	if err != nil {
		if errors.Is(err, repos.ErrSoldOut) {
			applog.Info(c, "checkout.soldout", map[string]any{"email": email})
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "All copies have been sold"})
		}
		applog.Error(c, "checkout.start.fail", err, map[string]any{"email": email})
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Could not start checkout. Please try again."})
	}

	applog.Audit(c, "checkout.start", map[string]any{"session_id": sessionID, "email": email})
	return c.JSON(fiber.Map{"sessionId": sessionID, "url": url})
}

// Success renders the post-payment confirmation page for a checkout session.
func (h *CheckoutHandler) Success(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if _, ok := validate.ID(sessionID); !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Purchase not found"})
	}

	p, err := h.Purchases.BySessionID(sessionID)
	if err != nil {
		// Webhook may still be in flight; show the pending state.
		return render(c, "success", fiber.Map{"Pending": true})
	}
	return render(c, "success", fiber.Map{
		"Pending":   p.PaymentStatus != domain.PurchaseStatusCompleted,
		"BuyerName": p.BuyerName,
		"Email":     p.BuyerEmail,
	})
}
