package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"

	"roofradar/internal/domain"
	applog "roofradar/internal/log"
	"roofradar/internal/repos"
)

// FulfillmentService runs the purchase pipeline behind the payment webhook:
// locate or create the purchase record, export the CSV, email the link, mark
// the purchase completed.
type FulfillmentService struct {
	Purchases *repos.PurchaseRepo
	Exporter  Exporter
	Notifier  DeliveryNotifier
	Cache     *repos.StatsCache // nil ok
}

func NewFulfillmentService(purchases *repos.PurchaseRepo, exporter Exporter, notifier DeliveryNotifier, cache *repos.StatsCache) *FulfillmentService {
	return &FulfillmentService{Purchases: purchases, Exporter: exporter, Notifier: notifier, Cache: cache}
}

// HandleEvent processes one verified webhook event. A returned error means
// the processor should redeliver.
func (s *FulfillmentService) HandleEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return s.completeSession(ctx, event)
	case "checkout.session.expired":
		return s.releaseSession(ctx, event)
	default:
		return nil
	}
}

func (s *FulfillmentService) completeSession(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}

	buyer := domain.Buyer{
		Name:    sess.Metadata["buyer_name"],
		Email:   sess.Metadata["buyer_email"],
		Company: sess.Metadata["buyer_company"],
		Phone:   sess.Metadata["buyer_phone"],
	}
	var intentID string
	if sess.PaymentIntent != nil {
		intentID = sess.PaymentIntent.ID
	}

	purchaseID, err := s.resolvePurchase(sess.ID, sess.Metadata["purchase_id"], buyer, intentID, sess.AmountTotal)
	if err != nil {
		return err
	}
	if err := s.Purchases.RecordPayment(purchaseID, sess.AmountTotal, intentID); err != nil {
		return fmt.Errorf("record payment: %w", err)
	}

	// Export before any email goes out. A broken export must never end with a
	// buyer holding a dead link.
	downloadURL, fileName, err := s.Exporter.Export(ctx, purchaseID)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if err := s.Notifier.Delivery(ctx, buyer, downloadURL); err != nil {
		return fmt.Errorf("delivery email: %w", err)
	}
	if err := s.Notifier.OperatorSaleNotice(ctx, buyer, sess.AmountTotal); err != nil {
		applog.Error(nil, "fulfillment.operator_notice.fail", err, map[string]any{"purchase_id": purchaseID})
	}

	// The buyer already has the link; a failed status write leaves a stale
	// pending row rather than triggering a redelivery that would email twice.
	if err := s.Purchases.MarkCompleted(purchaseID, downloadURL); err != nil {
		applog.Error(nil, "fulfillment.complete.fail", err, map[string]any{"purchase_id": purchaseID, "file": fileName})
		return nil
	}
	s.Cache.Invalidate(ctx)
	return nil
}

// releaseSession frees the reservation behind a checkout session that timed
// out unpaid. Completed purchases are untouched; the status guard in
// MarkFailed only moves pending rows.
func (s *FulfillmentService) releaseSession(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}

	p, err := s.Purchases.BySessionID(sess.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup purchase: %w", err)
	}
	if err := s.Purchases.MarkFailed(p.ID); err != nil {
		return fmt.Errorf("release reservation: %w", err)
	}

	applog.Audit(nil, "fulfillment.session.expired", map[string]any{"purchase_id": p.ID})
	s.Cache.Invalidate(ctx)
	return nil
}

// resolvePurchase finds the reservation made at checkout, or records the
// purchase fresh when no reservation survives.
func (s *FulfillmentService) resolvePurchase(sessionID, metadataID string, buyer domain.Buyer, intentID string, amountCents int64) (string, error) {
	if p, err := s.Purchases.BySessionID(sessionID); err == nil {
		return p.ID, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("lookup purchase: %w", err)
	}

	// A reservation that never got its session id attached.
	if metadataID != "" {
		if _, err := s.Purchases.ByID(metadataID); err == nil {
			if err := s.Purchases.AttachSession(metadataID, sessionID); err != nil {
				return "", fmt.Errorf("attach session: %w", err)
			}
			return metadataID, nil
		}
	}

	id := metadataID
	if id == "" {
		id = uuid.NewString()
	}
	if err := s.Purchases.InsertPending(id, buyer, sessionID, intentID, amountCents); err != nil {
		return "", fmt.Errorf("insert purchase: %w", err)
	}
	return id, nil
}
