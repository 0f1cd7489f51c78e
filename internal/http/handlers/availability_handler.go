package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "roofradar/internal/log"
	"roofradar/internal/services"
)

type AvailabilityHandler struct {
	Avail *services.AvailabilityService
}

// Check handles GET /api/v1/availability. On a storage error availability is
// unknown, so the endpoint fails closed rather than advertising copies.
func (h *AvailabilityHandler) Check(c *fiber.Ctx) error {
	avail, err := h.Avail.Check(c.Context())
	if err != nil {
		applog.Error(c, "availability.check.fail", err, nil)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "availability is temporarily unknown",
		})
	}
	return c.JSON(avail)
}
