package repos_test

import (
	"errors"
	"testing"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"roofradar/internal/domain"
	"roofradar/internal/repos"
)

var testBuyer = domain.Buyer{
	Name:    "Alice Tester",
	Email:   "alice@example.test",
	Company: "Tester Roofing LLC",
	Phone:   "(407) 555-0199",
}

func TestReserveEnforcesCap(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	pr := repos.NewPurchaseRepo(db)

	cap := 2
	if err := pr.Reserve("p1", testBuyer, cap); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if err := pr.Reserve("p2", testBuyer, cap); err != nil {
		t.Fatalf("second reserve: %v", err)
	}

	// cap reached; live pending reservations count against it
	err = pr.Reserve("p3", testBuyer, cap)
	if !errors.Is(err, repos.ErrSoldOut) {
		t.Fatalf("want ErrSoldOut, got %v", err)
	}

	active, err := pr.ActiveCount()
	if err != nil {
		t.Fatal(err)
	}
	if active != 2 {
		t.Fatalf("want 2 active, got %d", active)
	}
}

func TestReserveAfterFailedPayment(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	pr := repos.NewPurchaseRepo(db)

	if err := pr.Reserve("p1", testBuyer, 1); err != nil {
		t.Fatal(err)
	}
	if err := pr.Reserve("p2", testBuyer, 1); !errors.Is(err, repos.ErrSoldOut) {
		t.Fatalf("want ErrSoldOut while p1 pending, got %v", err)
	}

	// a failed payment frees the slot
	if err := pr.MarkFailed("p1"); err != nil {
		t.Fatal(err)
	}
	if err := pr.Reserve("p2", testBuyer, 1); err != nil {
		t.Fatalf("reserve after failure: %v", err)
	}
}

func TestMarkFailedOnlyMovesPendingRows(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	pr := repos.NewPurchaseRepo(db)

	if err := pr.Reserve("p1", testBuyer, 1); err != nil {
		t.Fatal(err)
	}
	if err := pr.MarkCompleted("p1", "http://example.test/dl"); err != nil {
		t.Fatal(err)
	}

	// a late expiry for an already-paid purchase must not release its copy
	if err := pr.MarkFailed("p1"); err != nil {
		t.Fatal(err)
	}
	p, err := pr.ByID("p1")
	if err != nil {
		t.Fatal(err)
	}
	if p.PaymentStatus != domain.PurchaseStatusCompleted {
		t.Fatalf("completed row moved to %s", p.PaymentStatus)
	}
	if err := pr.Reserve("p2", testBuyer, 1); !errors.Is(err, repos.ErrSoldOut) {
		t.Fatalf("sold copy came back on sale: %v", err)
	}
}

func TestMarkCompletedLifecycle(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	pr := repos.NewPurchaseRepo(db)

	if err := pr.Reserve("p1", testBuyer, 5); err != nil {
		t.Fatal(err)
	}
	if err := pr.AttachSession("p1", "cs_test_abc123"); err != nil {
		t.Fatal(err)
	}
	if err := pr.RecordPayment("p1", 49900, "pi_test_xyz"); err != nil {
		t.Fatal(err)
	}
	if err := pr.MarkCompleted("p1", "http://localhost:8080/downloads/roofing-database-p1.csv?exp=1&sig=x"); err != nil {
		t.Fatal(err)
	}

	p, err := pr.BySessionID("cs_test_abc123")
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != "p1" || p.PaymentStatus != domain.PurchaseStatusCompleted {
		t.Fatalf("bad purchase after completion: %+v", p)
	}
	if p.AmountCents != 49900 || p.StripePaymentIntentID != "pi_test_xyz" {
		t.Fatalf("payment details not recorded: %+v", p)
	}
	if p.DownloadURL == "" || p.DeliveredAt == "" || p.CanRepurchaseAfter == "" {
		t.Fatalf("delivery fields not set: %+v", p)
	}

	n, err := pr.CompletedCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("want 1 completed, got %d", n)
	}
}
