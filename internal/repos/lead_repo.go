package repos

import (
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"roofradar/internal/domain"
)

type LeadRepo struct{ db *sqlx.DB }

func NewLeadRepo(db *sqlx.DB) *LeadRepo { return &LeadRepo{db: db} }

func (r *LeadRepo) CreateFreeLead(name, email, company string) (string, error) {
	id := uuid.NewString()
	_, err := r.db.Exec(`
	  INSERT INTO free_lead_requests(id, name, email, company, status, created_at)
	  VALUES(?,?,?,?,'pending',CURRENT_TIMESTAMP)
	`, id, name, email, company)
	return id, err
}

// MarkLeadSent stamps a free-lead request once the operator has mailed it.
func (r *LeadRepo) MarkLeadSent(id string) error {
	_, err := r.db.Exec(`
	  UPDATE free_lead_requests SET status='sent', lead_sent_at=CURRENT_TIMESTAMP WHERE id=?
	`, id)
	return err
}

func (r *LeadRepo) ListFreeLeads() ([]domain.FreeLeadRequest, error) {
	var out []domain.FreeLeadRequest
	err := r.db.Select(&out, `
	  SELECT * FROM free_lead_requests ORDER BY datetime(created_at) DESC`)
	return out, err
}

func (r *LeadRepo) CreateWaitlistSignup(name, email, company string) (string, error) {
	id := uuid.NewString()
	_, err := r.db.Exec(`
	  INSERT INTO waitlist_signups(id, name, email, company, status, created_at)
	  VALUES(?,?,?,?,'pending',CURRENT_TIMESTAMP)
	`, id, name, email, company)
	return id, err
}

func (r *LeadRepo) ListWaitlist() ([]domain.WaitlistSignup, error) {
	var out []domain.WaitlistSignup
	err := r.db.Select(&out, `
	  SELECT * FROM waitlist_signups ORDER BY datetime(created_at) DESC`)
	return out, err
}

func (r *LeadRepo) RecordSampleView(ip string) error {
	_, err := r.db.Exec(`
	  INSERT INTO sample_views(id, ip_address, viewed_at)
	  VALUES(?,?,CURRENT_TIMESTAMP)
	`, uuid.NewString(), ip)
	return err
}

func (r *LeadRepo) SampleViewCount() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM sample_views`)
	return n, err
}

func (r *LeadRepo) CountFreeLeads() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM free_lead_requests`)
	return n, err
}

func (r *LeadRepo) CountWaitlist() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM waitlist_signups`)
	return n, err
}
