package handlers

import (
	"github.com/gofiber/fiber/v2"

	"roofradar/internal/domain"
	applog "roofradar/internal/log"
	"roofradar/internal/repos"
	"roofradar/internal/services"
	"roofradar/internal/validate"
)

type AdminHandler struct {
	Properties *repos.PropertyRepo
	Purchases  *repos.PurchaseRepo
	Leads      *repos.LeadRepo
	Exporter   services.Exporter
	SalesCap   int
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	total, err := h.Properties.CountAll()
	if err != nil {
		applog.Error(c, "admin.stats.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load stats"})
	}
	samples, _ := h.Properties.CountSamples()
	sold, _ := h.Purchases.CompletedCount()
	leads, _ := h.Leads.CountFreeLeads()
	waitlist, _ := h.Leads.CountWaitlist()
	views, _ := h.Leads.SampleViewCount()

	return render(c, "admin_dashboard", fiber.Map{
		"PropertyCount": total,
		"SampleCount":   samples,
		"SoldCount":     sold,
		"SalesCap":      h.SalesCap,
		"LeadCount":     leads,
		"WaitlistCount": waitlist,
		"SampleViews":   views,
	})
}

// GET /admin/properties
func (h *AdminHandler) PropertiesPage(c *fiber.Ctx) error {
	props, err := h.Properties.ListAll()
	if err != nil {
		applog.Error(c, "admin.properties.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load properties"})
	}
	return render(c, "admin_properties", fiber.Map{"Properties": props})
}

// GET /admin/properties/:id/edit
func (h *AdminHandler) PropertyEditPage(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Property not found"})
	}
	p, err := h.Properties.ByID(id)
	if err != nil {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Property not found"})
	}
	return render(c, "admin_property_edit", fiber.Map{"P": p})
}

// propertyFromForm validates the shared create/edit form fields.
func propertyFromForm(c *fiber.Ctx) (domain.Property, string) {
	name, okName := validate.Name(c.FormValue("property_name"))
	owner, okOwner := validate.Name(c.FormValue("owner_name"))
	zip, okZip := validate.ZIP(c.FormValue("zip_code"))
	phone, okPhone := validate.Phone(c.FormValue("owner_phone"))
	permit, okPermit := validate.Date(c.FormValue("last_permit_date"))
	age, okAge := validate.PositiveInt(c.FormValue("building_age"))
	year, okYear := validate.Year(c.FormValue("year_built"))
	sqft, okSqft := validate.PositiveInt(c.FormValue("square_footage"))

	switch {
	case !okName, !okOwner:
		return domain.Property{}, "property and owner names are required"
	case !okZip:
		return domain.Property{}, "enter a valid 5-digit ZIP"
	case !okPhone:
		return domain.Property{}, "enter a valid phone number"
	case !okPermit:
		return domain.Property{}, "permit date must be YYYY-MM-DD"
	case !okAge, !okYear, !okSqft:
		return domain.Property{}, "age, year built and square footage must be valid numbers"
	}

	if email := c.FormValue("owner_email"); email != "" {
		if _, ok := validate.Email(email); !ok {
			return domain.Property{}, "enter a valid owner email"
		}
	}

	return domain.Property{
		PropertyName:      name,
		Address:           c.FormValue("address"),
		City:              c.FormValue("city"),
		ZipCode:           zip,
		BuildingAge:       age,
		YearBuilt:         year,
		SquareFootage:     sqft,
		PropertyType:      c.FormValue("property_type"),
		OwnerName:         owner,
		ManagementCompany: c.FormValue("management_company"),
		OwnerPhone:        phone,
		OwnerEmail:        c.FormValue("owner_email"),
		LastPermitDate:    permit,
		Notes:             c.FormValue("notes"),
		IsSample:          c.FormValue("is_sample") == "on" || c.FormValue("is_sample") == "true",
	}, ""
}

// POST /admin/properties
func (h *AdminHandler) CreateProperty(c *fiber.Ctx) error {
	p, msg := propertyFromForm(c)
	if msg != "" {
		applog.Security(c, "validation.fail", map[string]any{"form": "property"})
		return c.Status(400).SendString(msg)
	}
	id, err := h.Properties.Create(p)
	if err != nil {
		applog.Error(c, "admin.properties.create.fail", err, nil)
		return c.Status(400).SendString("could not save property")
	}
	applog.Audit(c, "admin.properties.create", map[string]any{"property_id": id})
	return c.Redirect("/admin/properties")
}

// POST /admin/properties/:id
func (h *AdminHandler) UpdateProperty(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("invalid id")
	}
	p, msg := propertyFromForm(c)
	if msg != "" {
		applog.Security(c, "validation.fail", map[string]any{"form": "property"})
		return c.Status(400).SendString(msg)
	}
	p.ID = id
	if err := h.Properties.Update(p); err != nil {
		applog.Error(c, "admin.properties.update.fail", err, map[string]any{"property_id": id})
		return c.Status(400).SendString("could not update property")
	}
	applog.Audit(c, "admin.properties.update", map[string]any{"property_id": id})
	return c.Redirect("/admin/properties")
}

// POST /admin/properties/:id/delete
func (h *AdminHandler) DeleteProperty(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("invalid id")
	}
	if err := h.Properties.Delete(id); err != nil {
		applog.Error(c, "admin.properties.delete.fail", err, map[string]any{"property_id": id})
		return c.Status(400).SendString("could not delete property")
	}
	applog.Audit(c, "admin.properties.delete", map[string]any{"property_id": id})
	return c.Redirect("/admin/properties")
}

// POST /admin/properties/import accepts a multipart CSV upload.
func (h *AdminHandler) ImportProperties(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).SendString("attach a CSV file")
	}
	f, err := fh.Open()
	if err != nil {
		applog.Error(c, "admin.import.open.fail", err, nil)
		return c.Status(400).SendString("could not read upload")
	}
	defer f.Close()

	props, err := services.ParseImport(f)
	if err != nil {
		applog.Security(c, "admin.import.reject", map[string]any{"error": err.Error()})
		return c.Status(400).SendString("import rejected: " + err.Error())
	}
	n, err := h.Properties.InsertMany(props)
	if err != nil {
		applog.Error(c, "admin.import.insert.fail", err, nil)
		return c.Status(500).SendString("could not import rows")
	}
	applog.Audit(c, "admin.import", map[string]any{"rows": n})
	return c.Redirect("/admin/properties")
}

// GET /admin/purchases
func (h *AdminHandler) PurchasesPage(c *fiber.Ctx) error {
	purchases, err := h.Purchases.ListLatest(100)
	if err != nil {
		applog.Error(c, "admin.purchases.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load purchases"})
	}
	return render(c, "admin_purchases", fiber.Map{"Purchases": purchases})
}

// POST /admin/exports regenerates the CSV for a purchase and returns the
// fresh signed link.
func (h *AdminHandler) Export(c *fiber.Ctx) error {
	var req struct {
		PurchaseID string `json:"purchaseId" form:"purchase_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "missing purchase id"})
	}
	id, ok := validate.ID(req.PurchaseID)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "invalid purchase id"})
	}
	if _, err := h.Purchases.ByID(id); err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "purchase not found"})
	}

	url, fileName, err := h.Exporter.Export(c.Context(), id)
	if err != nil {
		applog.Error(c, "admin.export.fail", err, map[string]any{"purchase_id": id})
		return c.Status(500).JSON(fiber.Map{"error": "export failed"})
	}
	applog.Audit(c, "admin.export", map[string]any{"purchase_id": id, "file": fileName})
	return c.JSON(fiber.Map{"downloadUrl": url, "fileName": fileName})
}

// GET /admin/leads
func (h *AdminHandler) LeadsPage(c *fiber.Ctx) error {
	leads, err := h.Leads.ListFreeLeads()
	if err != nil {
		applog.Error(c, "admin.leads.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load leads"})
	}
	waitlist, _ := h.Leads.ListWaitlist()
	return render(c, "admin_leads", fiber.Map{"Leads": leads, "Waitlist": waitlist})
}

// POST /admin/leads/:id/sent
func (h *AdminHandler) MarkLeadSent(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("invalid id")
	}
	if err := h.Leads.MarkLeadSent(id); err != nil {
		applog.Error(c, "admin.leads.sent.fail", err, map[string]any{"lead_id": id})
		return c.Status(400).SendString("could not update lead")
	}
	applog.Audit(c, "admin.leads.sent", map[string]any{"lead_id": id})
	return c.Redirect("/admin/leads")
}
