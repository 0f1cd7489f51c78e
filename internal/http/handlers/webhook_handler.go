package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "roofradar/internal/log"
	"roofradar/internal/payments"
	"roofradar/internal/services"
)

type WebhookHandler struct {
	Verifier    payments.EventVerifier
	Fulfillment *services.FulfillmentService
}

// HandleStripe handles POST /api/v1/stripe/webhook. The signature check is
// the authentication for this endpoint; nothing in the payload is trusted
// before it passes.
func (h *WebhookHandler) HandleStripe(c *fiber.Ctx) error {
	sig := c.Get("Stripe-Signature")
	if sig == "" {
		applog.Security(c, "webhook.signature.missing", nil)
		return c.Status(fiber.StatusBadRequest).SendString("missing signature")
	}

	event, err := h.Verifier.ConstructEvent(c.Body(), sig)
	if err != nil {
		applog.Security(c, "webhook.signature.invalid", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusBadRequest).SendString("invalid signature")
	}

	if err := h.Fulfillment.HandleEvent(c.Context(), event); err != nil {
		applog.Error(c, "webhook.process.fail", err, map[string]any{"event_id": event.ID, "type": string(event.Type)})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing failed"})
	}

	applog.Audit(c, "webhook.process", map[string]any{"event_id": event.ID, "type": string(event.Type)})
	return c.JSON(fiber.Map{"received": true})
}
