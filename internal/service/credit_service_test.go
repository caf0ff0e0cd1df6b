package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"app/internal/model"

	"github.com/rs/zerolog"
)

func testCreditService(creditRepo *fakeCreditRepo, subRepo *fakeSubscriptionRepo, now time.Time) *creditService {
	return &creditService{
		creditRepo: creditRepo,
		subRepo:    subRepo,
		now:        func() time.Time { return now },
		logger:     zerolog.Nop(),
	}
}

func TestCheckAndReserveDeductsExactCost(t *testing.T) {
	creditRepo := newFakeCreditRepo(10)
	svc := testCreditService(creditRepo, &fakeSubscriptionRepo{}, time.Now())

	charged, err := svc.CheckAndReserve(context.Background(), "user-1", 2)
	if err != nil {
		t.Fatalf("CheckAndReserve returned error: %v", err)
	}
	if !charged {
		t.Fatal("expected credits to be charged")
	}
	if creditRepo.balance != 8 {
		t.Fatalf("expected balance 8 after deduction, got %d", creditRepo.balance)
	}
}

func TestCheckAndReserveInsufficientBalance(t *testing.T) {
	creditRepo := newFakeCreditRepo(1)
	svc := testCreditService(creditRepo, &fakeSubscriptionRepo{}, time.Now())

	_, err := svc.CheckAndReserve(context.Background(), "user-1", 2)
	var creditsErr *InsufficientCreditsError
	if !errors.As(err, &creditsErr) {
		t.Fatalf("expected InsufficientCreditsError, got %v", err)
	}
	if creditsErr.CurrentCredits != 1 || creditsErr.RequiredCredits != 2 {
		t.Fatalf("unexpected error detail: have %d, need %d", creditsErr.CurrentCredits, creditsErr.RequiredCredits)
	}
	if creditRepo.balance != 1 {
		t.Fatalf("balance must be untouched on failure, got %d", creditRepo.balance)
	}
}

func TestCheckAndReserveSubscriptionBypassesCredits(t *testing.T) {
	now := time.Now()
	creditRepo := newFakeCreditRepo(0)
	subRepo := &fakeSubscriptionRepo{sub: &model.Subscription{
		Status:           model.SubscriptionActive,
		CurrentPeriodEnd: now.Add(24 * time.Hour),
	}}
	svc := testCreditService(creditRepo, subRepo, now)

	charged, err := svc.CheckAndReserve(context.Background(), "user-1", 2)
	if err != nil {
		t.Fatalf("CheckAndReserve returned error: %v", err)
	}
	if charged {
		t.Fatal("subscriber must not be charged credits")
	}
	if creditRepo.balance != 0 {
		t.Fatalf("balance must stay 0, got %d", creditRepo.balance)
	}
}

func TestCheckAndReserveExpiredSubscriptionCharges(t *testing.T) {
	now := time.Now()
	creditRepo := newFakeCreditRepo(5)
	subRepo := &fakeSubscriptionRepo{sub: &model.Subscription{
		Status:           model.SubscriptionActive,
		CurrentPeriodEnd: now.Add(-time.Hour),
	}}
	svc := testCreditService(creditRepo, subRepo, now)

	charged, err := svc.CheckAndReserve(context.Background(), "user-1", 2)
	if err != nil {
		t.Fatalf("CheckAndReserve returned error: %v", err)
	}
	if !charged {
		t.Fatal("expired subscription must fall back to credits")
	}
	if creditRepo.balance != 3 {
		t.Fatalf("expected balance 3, got %d", creditRepo.balance)
	}
}

func TestCheckAndReservePastDueSubscriptionCharges(t *testing.T) {
	now := time.Now()
	creditRepo := newFakeCreditRepo(5)
	subRepo := &fakeSubscriptionRepo{sub: &model.Subscription{
		Status:           model.SubscriptionPastDue,
		CurrentPeriodEnd: now.Add(24 * time.Hour),
	}}
	svc := testCreditService(creditRepo, subRepo, now)

	charged, err := svc.CheckAndReserve(context.Background(), "user-1", 2)
	if err != nil {
		t.Fatalf("CheckAndReserve returned error: %v", err)
	}
	if !charged {
		t.Fatal("past_due subscription must not bypass credits")
	}
}

func TestReleaseRefundsCredits(t *testing.T) {
	creditRepo := newFakeCreditRepo(3)
	svc := testCreditService(creditRepo, &fakeSubscriptionRepo{}, time.Now())

	if err := svc.Release(context.Background(), "user-1", 2); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}
	if creditRepo.balance != 5 {
		t.Fatalf("expected balance 5 after refund, got %d", creditRepo.balance)
	}
}
