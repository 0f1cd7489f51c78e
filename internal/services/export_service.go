package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"roofradar/internal/blob"
	"roofradar/internal/domain"
	"roofradar/internal/repos"
)

// exportHeader is the fixed column order of the delivered CSV. Buyers sort on
// these columns in spreadsheets, so the order is part of the product.
var exportHeader = []string{
	"Property Name",
	"Address",
	"City",
	"Zip Code",
	"Building Age",
	"Year Built",
	"Est. Warranty Expiration",
	"Square Footage",
	"Property Type",
	"Owner Name",
	"Management Company",
	"Owner Phone",
	"Owner Email",
	"Last Roof Permit Date",
	"Notes",
}

// Exporter produces the deliverable for one purchase.
type Exporter interface {
	Export(ctx context.Context, purchaseID string) (downloadURL, fileName string, err error)
}

// ExportService reads all non-sample property records, serializes them to
// CSV, uploads the file and mints the signed download link.
type ExportService struct {
	Properties *repos.PropertyRepo
	Store      blob.ObjectStore
	Signer     *blob.URLSigner
	LinkTTL    time.Duration
}

func NewExportService(properties *repos.PropertyRepo, store blob.ObjectStore, signer *blob.URLSigner, ttl time.Duration) *ExportService {
	return &ExportService{Properties: properties, Store: store, Signer: signer, LinkTTL: ttl}
}

// Export builds and uploads the CSV for a purchase. Any failure propagates so
// the caller never emails a link that does not resolve.
func (s *ExportService) Export(ctx context.Context, purchaseID string) (string, string, error) {
	props, err := s.Properties.ForExport()
	if err != nil {
		return "", "", fmt.Errorf("load properties: %w", err)
	}

	data, err := BuildCSV(props)
	if err != nil {
		return "", "", fmt.Errorf("serialize csv: %w", err)
	}

	fileName := fmt.Sprintf("roofing-database-%s.csv", purchaseID)
	if err := s.Store.Put(ctx, fileName, data, "text/csv"); err != nil {
		return "", "", fmt.Errorf("upload csv: %w", err)
	}

	return s.Signer.SignedURL(fileName, s.LinkTTL), fileName, nil
}

// BuildCSV serializes property records with the fixed header. encoding/csv
// applies RFC 4180 quoting, so embedded commas, quotes and newlines survive a
// round trip through any standard parser.
func BuildCSV(props []domain.Property) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, p := range props {
		row := []string{
			p.PropertyName,
			p.Address,
			p.City,
			p.ZipCode,
			strconv.Itoa(p.BuildingAge),
			strconv.Itoa(p.YearBuilt),
			p.WarrantyExpiration,
			strconv.Itoa(p.SquareFootage),
			p.PropertyType,
			p.OwnerName,
			p.ManagementCompany,
			p.OwnerPhone,
			p.OwnerEmail,
			p.LastPermitDate,
			p.Notes,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
