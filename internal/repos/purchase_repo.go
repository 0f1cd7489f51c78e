package repos

import (
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"roofradar/internal/domain"
)

// ErrSoldOut is returned when the sales cap leaves no copy to reserve.
var ErrSoldOut = errors.New("all copies have been sold")

// ReservationTTL is how long an unpaid reservation holds a copy. Checkout
// sessions are created with the same expiry, so a slot is only released once
// its session can no longer be paid.
const ReservationTTL = time.Hour

// pendingWindow is ReservationTTL as a sqlite datetime modifier.
const pendingWindow = "-1 hour"

type PurchaseRepo struct{ db *sqlx.DB }

func NewPurchaseRepo(db *sqlx.DB) *PurchaseRepo { return &PurchaseRepo{db: db} }

// Reserve creates a pending purchase iff capacity remains. The cap check and
// the insert are a single statement, so concurrent checkouts cannot both take
// the last copy.
func (r *PurchaseRepo) Reserve(id string, buyer domain.Buyer, cap int) error {
	res, err := r.db.Exec(`
	  INSERT INTO purchases(id, buyer_name, buyer_email, buyer_company, buyer_phone, payment_status, created_at)
	  SELECT ?, ?, ?, ?, ?, 'pending', CURRENT_TIMESTAMP
	  WHERE (SELECT COUNT(*) FROM purchases
	         WHERE payment_status = 'completed'
	            OR (payment_status = 'pending' AND created_at > datetime('now', ?))) < ?
	`, id, buyer.Name, buyer.Email, buyer.Company, buyer.Phone, pendingWindow, cap)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrSoldOut
	}
	return nil
}

// AttachSession records the checkout session id on a fresh reservation.
func (r *PurchaseRepo) AttachSession(id, sessionID string) error {
	_, err := r.db.Exec(`UPDATE purchases SET stripe_session_id=? WHERE id=?`, sessionID, id)
	return err
}

// MarkFailed releases a reservation. Only pending rows transition, so a late
// expiry event can never undo a completed purchase.
func (r *PurchaseRepo) MarkFailed(id string) error {
	_, err := r.db.Exec(`UPDATE purchases SET payment_status='failed' WHERE id=? AND payment_status='pending'`, id)
	return err
}

func (r *PurchaseRepo) ByID(id string) (domain.Purchase, error) {
	var p domain.Purchase
	err := r.db.Get(&p, `SELECT * FROM purchases WHERE id=?`, id)
	return p, err
}

func (r *PurchaseRepo) BySessionID(sessionID string) (domain.Purchase, error) {
	var p domain.Purchase
	err := r.db.Get(&p, `SELECT * FROM purchases WHERE stripe_session_id=?`, sessionID)
	return p, err
}

// InsertPending records a purchase first seen at webhook time (no reservation
// row existed, e.g. a session created before a redeploy).
func (r *PurchaseRepo) InsertPending(id string, buyer domain.Buyer, sessionID, intentID string, amountCents int64) error {
	_, err := r.db.Exec(`
	  INSERT INTO purchases(id, buyer_name, buyer_email, buyer_company, buyer_phone,
	    amount_cents, stripe_session_id, stripe_payment_intent_id, payment_status, created_at)
	  VALUES(?,?,?,?,?,?,?,?,'pending',CURRENT_TIMESTAMP)
	`, id, buyer.Name, buyer.Email, buyer.Company, buyer.Phone, amountCents, sessionID, intentID)
	return err
}

// RecordPayment stores the captured amount and payment intent on a reservation.
func (r *PurchaseRepo) RecordPayment(id string, amountCents int64, intentID string) error {
	_, err := r.db.Exec(`
	  UPDATE purchases SET amount_cents=?, stripe_payment_intent_id=? WHERE id=?
	`, amountCents, intentID, id)
	return err
}

// MarkCompleted transitions a purchase to completed with its delivery URL.
// The repurchase window opens six months after delivery.
func (r *PurchaseRepo) MarkCompleted(id, downloadURL string) error {
	_, err := r.db.Exec(`
	  UPDATE purchases SET
	    payment_status='completed',
	    download_url=?,
	    delivered_at=CURRENT_TIMESTAMP,
	    can_repurchase_after=datetime('now', '+6 months')
	  WHERE id=?
	`, downloadURL, id)
	return err
}

// CompletedCount backs the inventory counter. Callers treat an error as
// availability unknown and fail closed.
func (r *PurchaseRepo) CompletedCount() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM purchases WHERE payment_status='completed'`)
	return n, err
}

// ActiveCount counts completed purchases plus live pending reservations, the
// figure the cap guard in Reserve uses.
func (r *PurchaseRepo) ActiveCount() (int, error) {
	var n int
	err := r.db.Get(&n, `
	  SELECT COUNT(*) FROM purchases
	  WHERE payment_status = 'completed'
	     OR (payment_status = 'pending' AND created_at > datetime('now', ?))
	`, pendingWindow)
	return n, err
}

func (r *PurchaseRepo) ListLatest(limit int) ([]domain.Purchase, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.Purchase
	err := r.db.Select(&out, `
	  SELECT * FROM purchases
	  ORDER BY datetime(created_at) DESC
	  LIMIT ?`, limit)
	return out, err
}
