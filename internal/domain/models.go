package domain

import "time"

// Payment status lifecycle for a purchase: pending -> completed, or failed.
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusFailed    = "failed"
)

// Lead/waitlist rows only ever move pending -> sent.
const (
	LeadStatusPending = "pending"
	LeadStatusSent    = "sent"
)

type Property struct {
	ID                 string `db:"id"`
	PropertyName       string `db:"property_name"`
	Address            string `db:"address"`
	City               string `db:"city"`
	ZipCode            string `db:"zip_code"`
	BuildingAge        int    `db:"building_age"`
	YearBuilt          int    `db:"year_built"`
	SquareFootage      int    `db:"square_footage"`
	PropertyType       string `db:"property_type"`
	OwnerName          string `db:"owner_name"`
	ManagementCompany  string `db:"management_company"`
	OwnerPhone         string `db:"owner_phone"`
	OwnerEmail         string `db:"owner_email"`
	LastPermitDate     string `db:"last_permit_date"`    // YYYY-MM-DD
	WarrantyExpiration string `db:"warranty_expiration"` // permit date + 20y, always recomputed
	Notes              string `db:"notes"`
	IsSample           bool   `db:"is_sample"`
	CreatedAt          string `db:"created_at"`
}

type Purchase struct {
	ID                    string `db:"id"`
	BuyerName             string `db:"buyer_name"`
	BuyerEmail            string `db:"buyer_email"`
	BuyerCompany          string `db:"buyer_company"`
	BuyerPhone            string `db:"buyer_phone"`
	AmountCents           int64  `db:"amount_cents"`
	StripeSessionID       string `db:"stripe_session_id"`
	StripePaymentIntentID string `db:"stripe_payment_intent_id"`
	PaymentStatus         string `db:"payment_status"`
	DownloadURL           string `db:"download_url"`
	DeliveredAt           string `db:"delivered_at"`
	CanRepurchaseAfter    string `db:"can_repurchase_after"`
	CreatedAt             string `db:"created_at"`
}

type FreeLeadRequest struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	Email      string `db:"email"`
	Company    string `db:"company"`
	Status     string `db:"status"`
	LeadSentAt string `db:"lead_sent_at"`
	CreatedAt  string `db:"created_at"`
}

type WaitlistSignup struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Email     string `db:"email"`
	Company   string `db:"company"`
	Status    string `db:"status"`
	CreatedAt string `db:"created_at"`
}

// Buyer carries the contact fields collected at checkout and echoed back by
// the payment processor as session metadata.
type Buyer struct {
	Name    string
	Email   string
	Company string
	Phone   string
}

// Availability is what the landing page polls to drive the scarcity banner.
type Availability struct {
	Status    string `json:"status"` // AVAILABLE | SOLD_OUT
	Remaining int    `json:"remaining"`
	Cap       int    `json:"cap"`
}

// warrantyYears is the fixed roof warranty offset applied to the last permit date.
const warrantyYears = 20

// WarrantyFromPermit computes the estimated warranty expiration for a
// YYYY-MM-DD permit date.
func WarrantyFromPermit(permitDate string) (string, error) {
	t, err := time.Parse("2006-01-02", permitDate)
	if err != nil {
		return "", err
	}
	return t.AddDate(warrantyYears, 0, 0).Format("2006-01-02"), nil
}
