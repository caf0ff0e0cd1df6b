package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"app/internal/model"

	"github.com/rs/zerolog"
)

func testCharacterService(charRepo *fakeCharacterRepo, logRepo *fakeCreationLogRepo, credits CreditService, now time.Time) *characterService {
	return &characterService{
		charRepo:   charRepo,
		logRepo:    logRepo,
		credits:    credits,
		creditCost: 2,
		windowDays: 7,
		maxPerWin:  7,
		now:        func() time.Time { return now },
		logger:     zerolog.Nop(),
	}
}

func heroInput(userID string) *model.Character {
	return &model.Character{
		UserID:    userID,
		Name:      "Luna",
		Archetype: "explorer",
		AgeBand:   model.AgeBandPreschool,
		Traits:    []string{"brave", "curious"},
	}
}

func TestCreateCharacterChargesAndLogs(t *testing.T) {
	now := time.Now()
	creditRepo := newFakeCreditRepo(10)
	charRepo := newFakeCharacterRepo()
	logRepo := &fakeCreationLogRepo{}
	credits := testCreditService(creditRepo, &fakeSubscriptionRepo{}, now)
	svc := testCharacterService(charRepo, logRepo, credits, now)

	created, remaining, err := svc.CreateCharacter(context.Background(), heroInput("user-1"))
	if err != nil {
		t.Fatalf("CreateCharacter returned error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected created character to have an id")
	}
	if creditRepo.balance != 8 {
		t.Fatalf("expected balance 8 after charge, got %d", creditRepo.balance)
	}
	if len(logRepo.entries) != 1 {
		t.Fatalf("expected one creation log entry, got %d", len(logRepo.entries))
	}
	if remaining != 6 {
		t.Fatalf("expected 6 remaining creations, got %d", remaining)
	}
}

func TestCreateCharacterInsufficientCreditsRollsBack(t *testing.T) {
	now := time.Now()
	creditRepo := newFakeCreditRepo(1)
	charRepo := newFakeCharacterRepo()
	logRepo := &fakeCreationLogRepo{}
	credits := testCreditService(creditRepo, &fakeSubscriptionRepo{}, now)
	svc := testCharacterService(charRepo, logRepo, credits, now)

	_, _, err := svc.CreateCharacter(context.Background(), heroInput("user-1"))
	var creditsErr *InsufficientCreditsError
	if !errors.As(err, &creditsErr) {
		t.Fatalf("expected InsufficientCreditsError, got %v", err)
	}
	if len(charRepo.deleted) != 1 {
		t.Fatalf("expected the inserted hero to be rolled back, deletes: %v", charRepo.deleted)
	}
	if len(charRepo.chars) != 0 {
		t.Fatalf("expected no heroes left, got %d", len(charRepo.chars))
	}
	if len(logRepo.entries) != 0 {
		t.Fatal("failed creation must not append to the creation log")
	}
}

func TestCreateCharacterWindowLimit(t *testing.T) {
	now := time.Now()
	creditRepo := newFakeCreditRepo(100)
	charRepo := newFakeCharacterRepo()
	logRepo := &fakeCreationLogRepo{}
	for i := 0; i < 7; i++ {
		logRepo.entries = append(logRepo.entries, now.Add(-time.Duration(i)*24*time.Hour))
	}
	credits := testCreditService(creditRepo, &fakeSubscriptionRepo{}, now)
	svc := testCharacterService(charRepo, logRepo, credits, now)

	_, _, err := svc.CreateCharacter(context.Background(), heroInput("user-1"))
	var limitErr *CreationLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected CreationLimitError, got %v", err)
	}
	if limitErr.CurrentCount != 7 || limitErr.MaxAllowed != 7 {
		t.Fatalf("unexpected limit detail: %d of %d", limitErr.CurrentCount, limitErr.MaxAllowed)
	}
	if limitErr.ResetsInDays < 1 || limitErr.ResetsInDays > 7 {
		t.Fatalf("resets hint out of range: %d", limitErr.ResetsInDays)
	}
	if creditRepo.balance != 100 {
		t.Fatal("limited creation must not charge credits")
	}
	if len(charRepo.chars) != 0 {
		t.Fatal("limited creation must not insert a hero")
	}
}

func TestCreateCharacterOldEntriesFallOutOfWindow(t *testing.T) {
	now := time.Now()
	creditRepo := newFakeCreditRepo(10)
	charRepo := newFakeCharacterRepo()
	logRepo := &fakeCreationLogRepo{}
	// Seven creations, but one is older than the window.
	logRepo.entries = append(logRepo.entries, now.Add(-8*24*time.Hour))
	for i := 0; i < 6; i++ {
		logRepo.entries = append(logRepo.entries, now.Add(-time.Duration(i+1)*24*time.Hour))
	}
	credits := testCreditService(creditRepo, &fakeSubscriptionRepo{}, now)
	svc := testCharacterService(charRepo, logRepo, credits, now)

	_, remaining, err := svc.CreateCharacter(context.Background(), heroInput("user-1"))
	if err != nil {
		t.Fatalf("CreateCharacter returned error: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected 0 remaining creations, got %d", remaining)
	}
}

func TestGetOwnedCharacter(t *testing.T) {
	now := time.Now()
	charRepo := newFakeCharacterRepo()
	credits := testCreditService(newFakeCreditRepo(10), &fakeSubscriptionRepo{}, now)
	svc := testCharacterService(charRepo, &fakeCreationLogRepo{}, credits, now)

	created, _, err := svc.CreateCharacter(context.Background(), heroInput("user-1"))
	if err != nil {
		t.Fatalf("CreateCharacter returned error: %v", err)
	}

	if _, err := svc.GetOwnedCharacter(context.Background(), "user-1", created.ID); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
	if _, err := svc.GetOwnedCharacter(context.Background(), "user-2", created.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}
	if _, err := svc.GetOwnedCharacter(context.Background(), "user-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
