package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v82"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"roofradar/internal/domain"
	"roofradar/internal/repos"
	"roofradar/internal/services"
)

type fakeExporter struct {
	calls int
	err   error
}

func (f *fakeExporter) Export(_ context.Context, purchaseID string) (string, string, error) {
	f.calls++
	if f.err != nil {
		return "", "", f.err
	}
	return "http://localhost:8080/downloads/roofing-database-" + purchaseID + ".csv?exp=1&sig=x",
		"roofing-database-" + purchaseID + ".csv", nil
}

type fakeNotifier struct {
	deliveries      int
	operatorNotices int
	deliveryErr     error
	operatorErr     error
}

func (f *fakeNotifier) Delivery(_ context.Context, _ domain.Buyer, _ string) error {
	if f.deliveryErr != nil {
		return f.deliveryErr
	}
	f.deliveries++
	return nil
}

func (f *fakeNotifier) OperatorSaleNotice(_ context.Context, _ domain.Buyer, _ int64) error {
	if f.operatorErr != nil {
		return f.operatorErr
	}
	f.operatorNotices++
	return nil
}

func completedEvent(t *testing.T, sessionID, purchaseID string) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id":           sessionID,
		"amount_total": 49900,
		"payment_intent": map[string]any{
			"id": "pi_test_1",
		},
		"metadata": map[string]string{
			"purchase_id":   purchaseID,
			"buyer_name":    "Alice Tester",
			"buyer_email":   "alice@example.test",
			"buyer_company": "Tester Roofing LLC",
			"buyer_phone":   "(407) 555-0199",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return stripe.Event{
		ID:   "evt_test_1",
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEventCompletesReservation(t *testing.T) {
	db := openTestDB(t)
	pr := repos.NewPurchaseRepo(db)
	if err := pr.Reserve("purch-1", buyer(), 5); err != nil {
		t.Fatal(err)
	}
	if err := pr.AttachSession("purch-1", "cs_test_1"); err != nil {
		t.Fatal(err)
	}

	exporter := &fakeExporter{}
	notifier := &fakeNotifier{}
	svc := services.NewFulfillmentService(pr, exporter, notifier, nil)

	if err := svc.HandleEvent(context.Background(), completedEvent(t, "cs_test_1", "purch-1")); err != nil {
		t.Fatal(err)
	}

	p, err := pr.ByID("purch-1")
	if err != nil {
		t.Fatal(err)
	}
	if p.PaymentStatus != domain.PurchaseStatusCompleted {
		t.Fatalf("want completed, got %s", p.PaymentStatus)
	}
	if p.AmountCents != 49900 || p.StripePaymentIntentID != "pi_test_1" {
		t.Fatalf("payment not recorded: %+v", p)
	}
	if p.DownloadURL == "" {
		t.Fatal("download url not stored")
	}
	if exporter.calls != 1 || notifier.deliveries != 1 || notifier.operatorNotices != 1 {
		t.Fatalf("pipeline counts: export=%d delivery=%d operator=%d",
			exporter.calls, notifier.deliveries, notifier.operatorNotices)
	}
}

func TestHandleEventExportFailureSendsNoEmail(t *testing.T) {
	db := openTestDB(t)
	pr := repos.NewPurchaseRepo(db)
	if err := pr.Reserve("purch-1", buyer(), 5); err != nil {
		t.Fatal(err)
	}
	if err := pr.AttachSession("purch-1", "cs_test_1"); err != nil {
		t.Fatal(err)
	}

	exporter := &fakeExporter{err: errors.New("bucket down")}
	notifier := &fakeNotifier{}
	svc := services.NewFulfillmentService(pr, exporter, notifier, nil)

	err := svc.HandleEvent(context.Background(), completedEvent(t, "cs_test_1", "purch-1"))
	if err == nil {
		t.Fatal("expected error so the event is redelivered")
	}
	if notifier.deliveries != 0 {
		t.Fatal("no email may go out without a working download")
	}

	// still pending, a redelivery can finish the job
	p, err := pr.ByID("purch-1")
	if err != nil {
		t.Fatal(err)
	}
	if p.PaymentStatus != domain.PurchaseStatusPending {
		t.Fatalf("want pending, got %s", p.PaymentStatus)
	}
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	db := openTestDB(t)
	pr := repos.NewPurchaseRepo(db)
	exporter := &fakeExporter{}
	notifier := &fakeNotifier{}
	svc := services.NewFulfillmentService(pr, exporter, notifier, nil)

	event := stripe.Event{ID: "evt_test_2", Type: "invoice.paid", Data: &stripe.EventData{Raw: []byte(`{}`)}}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatal(err)
	}
	if exporter.calls != 0 || notifier.deliveries != 0 {
		t.Fatal("unrelated event types must be ignored")
	}
}

func expiredEvent(t *testing.T, sessionID string) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"id": sessionID})
	if err != nil {
		t.Fatal(err)
	}
	return stripe.Event{
		ID:   "evt_test_exp",
		Type: "checkout.session.expired",
		Data: &stripe.EventData{Raw: raw},
	}
}

// A reservation whose session timed out must give its copy back, and a
// reservation whose session is still payable must keep holding it. Without
// that, a slow buyer could pay for a slot that was already re-sold.
func TestHandleEventExpiredSessionFreesSlot(t *testing.T) {
	db := openTestDB(t)
	pr := repos.NewPurchaseRepo(db)
	svc := services.NewFulfillmentService(pr, &fakeExporter{}, &fakeNotifier{}, nil)

	if err := pr.Reserve("purch-1", buyer(), 1); err != nil {
		t.Fatal(err)
	}
	if err := pr.AttachSession("purch-1", "cs_test_1"); err != nil {
		t.Fatal(err)
	}

	// cap is full while the session is live
	if err := pr.Reserve("purch-2", buyer(), 1); !errors.Is(err, repos.ErrSoldOut) {
		t.Fatalf("want ErrSoldOut before expiry, got %v", err)
	}

	if err := svc.HandleEvent(context.Background(), expiredEvent(t, "cs_test_1")); err != nil {
		t.Fatal(err)
	}
	p, err := pr.ByID("purch-1")
	if err != nil {
		t.Fatal(err)
	}
	if p.PaymentStatus != domain.PurchaseStatusFailed {
		t.Fatalf("want failed after expiry, got %s", p.PaymentStatus)
	}

	// the copy is sellable again
	if err := pr.Reserve("purch-2", buyer(), 1); err != nil {
		t.Fatalf("slot not released: %v", err)
	}
}

func TestHandleEventExpiryNeverUndoesCompletion(t *testing.T) {
	db := openTestDB(t)
	pr := repos.NewPurchaseRepo(db)
	svc := services.NewFulfillmentService(pr, &fakeExporter{}, &fakeNotifier{}, nil)

	if err := pr.Reserve("purch-1", buyer(), 1); err != nil {
		t.Fatal(err)
	}
	if err := pr.AttachSession("purch-1", "cs_test_1"); err != nil {
		t.Fatal(err)
	}
	if err := svc.HandleEvent(context.Background(), completedEvent(t, "cs_test_1", "purch-1")); err != nil {
		t.Fatal(err)
	}

	// a straggling expiry event for the same session is a no-op
	if err := svc.HandleEvent(context.Background(), expiredEvent(t, "cs_test_1")); err != nil {
		t.Fatal(err)
	}
	p, err := pr.ByID("purch-1")
	if err != nil {
		t.Fatal(err)
	}
	if p.PaymentStatus != domain.PurchaseStatusCompleted {
		t.Fatalf("expiry clobbered a completed purchase: %s", p.PaymentStatus)
	}
}

func TestHandleEventOperatorNoticeFailureStillCompletes(t *testing.T) {
	db := openTestDB(t)
	pr := repos.NewPurchaseRepo(db)
	notifier := &fakeNotifier{operatorErr: errors.New("smtp down")}
	svc := services.NewFulfillmentService(pr, &fakeExporter{}, notifier, nil)

	if err := pr.Reserve("purch-1", buyer(), 5); err != nil {
		t.Fatal(err)
	}
	if err := pr.AttachSession("purch-1", "cs_test_1"); err != nil {
		t.Fatal(err)
	}

	// the buyer has their link; the operator notice is best effort
	if err := svc.HandleEvent(context.Background(), completedEvent(t, "cs_test_1", "purch-1")); err != nil {
		t.Fatal(err)
	}
	p, err := pr.ByID("purch-1")
	if err != nil {
		t.Fatal(err)
	}
	if p.PaymentStatus != domain.PurchaseStatusCompleted || notifier.deliveries != 1 {
		t.Fatalf("pipeline broke on operator notice: status=%s deliveries=%d", p.PaymentStatus, notifier.deliveries)
	}
}

func TestHandleEventRecordsUnknownSession(t *testing.T) {
	db := openTestDB(t)
	pr := repos.NewPurchaseRepo(db)
	exporter := &fakeExporter{}
	notifier := &fakeNotifier{}
	svc := services.NewFulfillmentService(pr, exporter, notifier, nil)

	// no reservation exists for this session (e.g. created before a redeploy)
	if err := svc.HandleEvent(context.Background(), completedEvent(t, "cs_test_9", "purch-9")); err != nil {
		t.Fatal(err)
	}

	p, err := pr.BySessionID("cs_test_9")
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != "purch-9" || p.PaymentStatus != domain.PurchaseStatusCompleted {
		t.Fatalf("bad recovered purchase: %+v", p)
	}
	if p.BuyerEmail != "alice@example.test" {
		t.Fatalf("buyer not rebuilt from metadata: %+v", p)
	}
}
