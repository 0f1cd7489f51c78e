package services_test

import (
	"context"
	"testing"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"roofradar/internal/repos"
	"roofradar/internal/services"
)

func TestAvailabilityCountsDown(t *testing.T) {
	db := openTestDB(t)
	pr := repos.NewPurchaseRepo(db)
	svc := services.NewAvailabilityService(pr, nil, 3)
	ctx := context.Background()

	a, err := svc.Check(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != "AVAILABLE" || a.Remaining != 3 || a.Cap != 3 {
		t.Fatalf("fresh store: %+v", a)
	}

	// a live pending reservation already holds a copy
	if err := pr.Reserve("p1", buyer(), 3); err != nil {
		t.Fatal(err)
	}
	a, err = svc.Check(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if a.Remaining != 2 {
		t.Fatalf("want 2 remaining, got %+v", a)
	}

	for _, id := range []string{"p2", "p3"} {
		if err := pr.Reserve(id, buyer(), 3); err != nil {
			t.Fatal(err)
		}
		if err := pr.MarkCompleted(id, "http://example.test/dl"); err != nil {
			t.Fatal(err)
		}
	}
	a, err = svc.Check(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != "SOLD_OUT" || a.Remaining != 0 {
		t.Fatalf("want SOLD_OUT(0), got %+v", a)
	}
}

func TestAvailabilityFailsClosed(t *testing.T) {
	db := openTestDB(t)
	pr := repos.NewPurchaseRepo(db)
	svc := services.NewAvailabilityService(pr, nil, 3)

	// storage gone means availability unknown, never optimistic
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Check(context.Background()); err == nil {
		t.Fatal("expected error once storage is unreachable")
	}
}
