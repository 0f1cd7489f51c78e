package repos

import (
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"roofradar/internal/domain"
)

type PropertyRepo struct{ db *sqlx.DB }

func NewPropertyRepo(db *sqlx.DB) *PropertyRepo { return &PropertyRepo{db: db} }

// Create inserts a property record. The warranty expiration is always derived
// from the permit date here so admin input can never desync the two.
func (r *PropertyRepo) Create(p domain.Property) (string, error) {
	warranty, err := domain.WarrantyFromPermit(p.LastPermitDate)
	if err != nil {
		return "", err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err = r.db.Exec(`
	  INSERT INTO properties(
	    id, property_name, address, city, zip_code, building_age, year_built,
	    square_footage, property_type, owner_name, management_company,
	    owner_phone, owner_email, last_permit_date, warranty_expiration, notes, is_sample, created_at)
	  VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, p.ID, p.PropertyName, p.Address, p.City, p.ZipCode, p.BuildingAge, p.YearBuilt,
		p.SquareFootage, p.PropertyType, p.OwnerName, p.ManagementCompany,
		p.OwnerPhone, p.OwnerEmail, p.LastPermitDate, warranty, p.Notes, p.IsSample)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

func (r *PropertyRepo) Update(p domain.Property) error {
	warranty, err := domain.WarrantyFromPermit(p.LastPermitDate)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`
	  UPDATE properties SET
	    property_name=?, address=?, city=?, zip_code=?, building_age=?, year_built=?,
	    square_footage=?, property_type=?, owner_name=?, management_company=?,
	    owner_phone=?, owner_email=?, last_permit_date=?, warranty_expiration=?, notes=?, is_sample=?
	  WHERE id=?
	`, p.PropertyName, p.Address, p.City, p.ZipCode, p.BuildingAge, p.YearBuilt,
		p.SquareFootage, p.PropertyType, p.OwnerName, p.ManagementCompany,
		p.OwnerPhone, p.OwnerEmail, p.LastPermitDate, warranty, p.Notes, p.IsSample, p.ID)
	return err
}

func (r *PropertyRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM properties WHERE id=?`, id)
	return err
}

func (r *PropertyRepo) ByID(id string) (domain.Property, error) {
	var p domain.Property
	err := r.db.Get(&p, `SELECT * FROM properties WHERE id=?`, id)
	return p, err
}

func (r *PropertyRepo) ListAll() ([]domain.Property, error) {
	var out []domain.Property
	err := r.db.Select(&out, `SELECT * FROM properties ORDER BY datetime(created_at) DESC, id`)
	return out, err
}

// Samples returns the records flagged for the public landing-page preview.
func (r *PropertyRepo) Samples() ([]domain.Property, error) {
	var out []domain.Property
	err := r.db.Select(&out, `
	  SELECT * FROM properties WHERE is_sample=1
	  ORDER BY datetime(created_at) DESC, id`)
	return out, err
}

// ForExport returns every non-sample record in reverse creation order, the
// order the delivered CSV is built in.
func (r *PropertyRepo) ForExport() ([]domain.Property, error) {
	var out []domain.Property
	err := r.db.Select(&out, `
	  SELECT * FROM properties WHERE is_sample=0
	  ORDER BY datetime(created_at) DESC, id`)
	return out, err
}

// InsertMany bulk-inserts records inside one transaction (admin CSV import).
// Returns the number inserted; any bad row aborts the whole batch.
func (r *PropertyRepo) InsertMany(props []domain.Property) (int, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	for i := range props {
		p := props[i]
		warranty, err := domain.WarrantyFromPermit(p.LastPermitDate)
		if err != nil {
			return 0, err
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if _, err := tx.Exec(`
		  INSERT INTO properties(
		    id, property_name, address, city, zip_code, building_age, year_built,
		    square_footage, property_type, owner_name, management_company,
		    owner_phone, owner_email, last_permit_date, warranty_expiration, notes, is_sample, created_at)
		  VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
		`, p.ID, p.PropertyName, p.Address, p.City, p.ZipCode, p.BuildingAge, p.YearBuilt,
			p.SquareFootage, p.PropertyType, p.OwnerName, p.ManagementCompany,
			p.OwnerPhone, p.OwnerEmail, p.LastPermitDate, warranty, p.Notes, p.IsSample); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(props), nil
}

func (r *PropertyRepo) CountAll() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM properties`)
	return n, err
}

func (r *PropertyRepo) CountSamples() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM properties WHERE is_sample=1`)
	return n, err
}
