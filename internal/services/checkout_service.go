package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"

	"roofradar/internal/domain"
	"roofradar/internal/payments"
	"roofradar/internal/repos"
)

// CheckoutService reserves a copy and opens a hosted payment session for it.
type CheckoutService struct {
	Purchases *repos.PurchaseRepo
	Sessions  payments.SessionCreator

	Cap           int
	PriceCents    int64
	ProductName   string
	ProductDesc   string
	PublicBaseURL string
}

// Start reserves a pending purchase and creates the Stripe checkout session.
// The reservation happens first: it is the atomic cap check, and the session
// metadata carries its id so the webhook can find it again. Sold out surfaces
// as repos.ErrSoldOut with no Stripe call made.
func (s *CheckoutService) Start(buyer domain.Buyer) (sessionID, redirectURL string, err error) {
	purchaseID := uuid.NewString()
	if err := s.Purchases.Reserve(purchaseID, buyer, s.Cap); err != nil {
		return "", "", err
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		// The session dies with the reservation. A reservation only stops
		// counting against the cap once nobody can still pay for it.
		ExpiresAt: stripe.Int64(time.Now().Add(repos.ReservationTTL).Unix()),
		SuccessURL:         stripe.String(s.PublicBaseURL + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:          stripe.String(s.PublicBaseURL + "/"),
		CustomerEmail:      stripe.String(buyer.Email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(s.PriceCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(s.ProductName),
						Description: stripe.String(s.ProductDesc),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.AddMetadata("purchase_id", purchaseID)
	params.AddMetadata("buyer_name", buyer.Name)
	params.AddMetadata("buyer_email", buyer.Email)
	params.AddMetadata("buyer_company", buyer.Company)
	params.AddMetadata("buyer_phone", buyer.Phone)

	sess, err := s.Sessions.NewCheckoutSession(params)
	if err != nil {
		// Release the slot; the buyer never saw a payment page.
		_ = s.Purchases.MarkFailed(purchaseID)
		return "", "", fmt.Errorf("create checkout session: %w", err)
	}

	if err := s.Purchases.AttachSession(purchaseID, sess.ID); err != nil {
		return "", "", fmt.Errorf("attach session: %w", err)
	}
	return sess.ID, sess.URL, nil
}
