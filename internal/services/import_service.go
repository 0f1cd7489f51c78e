package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"roofradar/internal/domain"
	"roofradar/internal/validate"
)

// ParseImport reads an admin-uploaded CSV into property records. The file
// must carry the same header row the export writes; column order is free.
// Any bad row fails the whole file with its line number so the admin can fix
// the sheet and re-upload.
func ParseImport(r io.Reader) ([]domain.Property, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{
		"property name", "address", "city", "zip code", "building age", "year built",
		"square footage", "property type", "owner name", "owner phone", "last roof permit date",
	} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []domain.Property
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		age, okAge := validate.PositiveInt(field(row, "building age"))
		year, okYear := validate.Year(field(row, "year built"))
		sqft, okSqft := validate.PositiveInt(field(row, "square footage"))
		zip, okZip := validate.ZIP(field(row, "zip code"))
		permit, okPermit := validate.Date(field(row, "last roof permit date"))
		if !okAge || !okYear || !okSqft || !okZip || !okPermit {
			return nil, fmt.Errorf("line %d: invalid numeric, zip or date field", line)
		}
		name, okName := validate.Name(field(row, "property name"))
		owner, okOwner := validate.Name(field(row, "owner name"))
		phone, okPhone := validate.Phone(field(row, "owner phone"))
		if !okName || !okOwner || !okPhone {
			return nil, fmt.Errorf("line %d: invalid name or phone field", line)
		}

		out = append(out, domain.Property{
			PropertyName:      name,
			Address:           field(row, "address"),
			City:              field(row, "city"),
			ZipCode:           zip,
			BuildingAge:       age,
			YearBuilt:         year,
			SquareFootage:     sqft,
			PropertyType:      field(row, "property type"),
			OwnerName:         owner,
			ManagementCompany: field(row, "management company"),
			OwnerPhone:        phone,
			OwnerEmail:        field(row, "owner email"),
			LastPermitDate:    permit,
			Notes:             field(row, "notes"),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no data rows")
	}
	return out, nil
}
