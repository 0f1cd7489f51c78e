package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "roofradar/internal/log"
	"roofradar/internal/repos"
)

type SampleHandler struct {
	Properties *repos.PropertyRepo
	Leads      *repos.LeadRepo
	Cache      *repos.StatsCache // nil ok
}

// sampleRecord is the public projection of a sample property. Owner contact
// fields stay out; the preview sells the data without giving it away.
type sampleRecord struct {
	PropertyName       string `json:"propertyName"`
	Address            string `json:"address"`
	City               string `json:"city"`
	ZipCode            string `json:"zipCode"`
	BuildingAge        int    `json:"buildingAge"`
	YearBuilt          int    `json:"yearBuilt"`
	SquareFootage      int    `json:"squareFootage"`
	PropertyType       string `json:"propertyType"`
	WarrantyExpiration string `json:"warrantyExpiration"`
	LastPermitDate     string `json:"lastPermitDate"`
}

// List handles GET /api/v1/samples for the landing-page preview table.
func (h *SampleHandler) List(c *fiber.Ctx) error {
	props, err := h.Properties.Samples()
	if err != nil {
		applog.Error(c, "samples.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load samples"})
	}

	// View tracking is best effort; never block the response on it.
	if err := h.Leads.RecordSampleView(c.IP()); err != nil {
		applog.Error(c, "samples.view.record.fail", err, nil)
	}
	h.Cache.BumpSampleViews(c.Context())

	out := make([]sampleRecord, 0, len(props))
	for _, p := range props {
		out = append(out, sampleRecord{
			PropertyName:       p.PropertyName,
			Address:            p.Address,
			City:               p.City,
			ZipCode:            p.ZipCode,
			BuildingAge:        p.BuildingAge,
			YearBuilt:          p.YearBuilt,
			SquareFootage:      p.SquareFootage,
			PropertyType:       p.PropertyType,
			WarrantyExpiration: p.WarrantyExpiration,
			LastPermitDate:     p.LastPermitDate,
		})
	}
	return c.JSON(fiber.Map{"samples": out})
}
