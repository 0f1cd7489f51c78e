package payments

import (
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// SessionCreator creates hosted checkout sessions. Tests substitute a fake;
// production uses StripeClient.
type SessionCreator interface {
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// EventVerifier authenticates webhook payloads before anything trusts them.
type EventVerifier interface {
	ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

type StripeClient struct{}

// NewStripeClient sets the package-level API key the stripe-go resource
// packages read.
func NewStripeClient(apiKey string) *StripeClient {
	stripe.Key = apiKey
	return &StripeClient{}
}

func (c *StripeClient) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

// WebhookVerifier checks the Stripe-Signature header against the shared
// signing secret.
type WebhookVerifier struct{ Secret string }

func (v *WebhookVerifier) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, v.Secret)
}
