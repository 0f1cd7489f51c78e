package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "roofradar/internal/log"
	"roofradar/internal/repos"
	"roofradar/internal/services"
	"roofradar/internal/validate"
)

type LeadHandler struct {
	Leads  *repos.LeadRepo
	Notify *services.NotifyService
}

type leadRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

func (h *LeadHandler) parse(c *fiber.Ctx) (name, email, company string, ok bool) {
	var req leadRequest
	if err := c.BodyParser(&req); err != nil {
		return "", "", "", false
	}
	name, okName := validate.Name(req.Name)
	email, okEmail := validate.Email(req.Email)
	company, okCompany := validate.Company(req.Company)
	return name, email, company, okName && okEmail && okCompany
}

// FreeLead handles POST /api/v1/free-lead: persist the request, alert the
// operator and confirm to the prospect. Email failure is logged but the row
// survives so the operator can still follow up.
func (h *LeadHandler) FreeLead(c *fiber.Ctx) error {
	name, email, company, ok := h.parse(c)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"form": "free_lead"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name, valid email and company are required"})
	}

	id, err := h.Leads.CreateFreeLead(name, email, company)
	if err != nil {
		applog.Error(c, "lead.free.create.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not save your request"})
	}

	if err := h.Notify.FreeLead(c.Context(), name, email, company); err != nil {
		applog.Error(c, "lead.free.email.fail", err, map[string]any{"lead_id": id})
	}

	applog.Audit(c, "lead.free.create", map[string]any{"lead_id": id})
	return c.JSON(fiber.Map{"success": true, "message": "Free lead request received. Check your inbox!"})
}

// Waitlist handles POST /api/v1/waitlist for the next-release list.
func (h *LeadHandler) Waitlist(c *fiber.Ctx) error {
	name, email, company, ok := h.parse(c)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"form": "waitlist"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name, valid email and company are required"})
	}

	id, err := h.Leads.CreateWaitlistSignup(name, email, company)
	if err != nil {
		applog.Error(c, "waitlist.create.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not save your signup"})
	}

	if err := h.Notify.WaitlistConfirm(c.Context(), name, email); err != nil {
		applog.Error(c, "waitlist.email.fail", err, map[string]any{"signup_id": id})
	}

	applog.Audit(c, "waitlist.create", map[string]any{"signup_id": id})
	return c.JSON(fiber.Map{"success": true})
}
