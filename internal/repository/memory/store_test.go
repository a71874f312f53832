package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/itoshi/membership-service/internal/core/domain"
	"github.com/itoshi/membership-service/internal/repository"
)

func testUser(id, username, email, code string, createdAt time.Time) domain.User {
	return domain.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
		ReferralCode: code,
		CreatedAt:    createdAt,
	}
}

func TestUserRepositoryCreateEnforcesUniqueness(t *testing.T) {
	store := NewStore()
	users := store.Users()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := users.Create(ctx, testUser("u1", "alice", "alice@example.com", "AAAA1111", now)); err != nil {
		t.Fatalf("create: %v", err)
	}

	cases := []struct {
		name string
		user domain.User
	}{
		{name: "duplicate id", user: testUser("u1", "bob", "bob@example.com", "BBBB2222", now)},
		{name: "duplicate username", user: testUser("u2", "alice", "bob@example.com", "BBBB2222", now)},
		{name: "duplicate email", user: testUser("u2", "bob", "alice@example.com", "BBBB2222", now)},
		{name: "duplicate referral code", user: testUser("u2", "bob", "bob@example.com", "AAAA1111", now)},
	}

	for _, tc := range cases {
		if err := users.Create(ctx, tc.user); !errors.Is(err, repository.ErrDuplicate) {
			t.Fatalf("%s: expected ErrDuplicate, got %v", tc.name, err)
		}
	}
}

func TestUserRepositoryLookups(t *testing.T) {
	store := NewStore()
	users := store.Users()
	ctx := context.Background()

	seeded := testUser("u1", "alice", "alice@example.com", "AAAA1111", time.Now().UTC())
	if err := users.Create(ctx, seeded); err != nil {
		t.Fatalf("create: %v", err)
	}

	if got, err := users.GetByID(ctx, "u1"); err != nil || got.Username != "alice" {
		t.Fatalf("GetByID: got %v, err %v", got, err)
	}
	if got, err := users.GetByEmailOrUsername(ctx, "alice@example.com", "nobody"); err != nil || got.ID != "u1" {
		t.Fatalf("GetByEmailOrUsername by email: got %v, err %v", got, err)
	}
	if got, err := users.GetByEmailOrUsername(ctx, "nobody@example.com", "alice"); err != nil || got.ID != "u1" {
		t.Fatalf("GetByEmailOrUsername by username: got %v, err %v", got, err)
	}
	if got, err := users.GetByReferralCode(ctx, "AAAA1111"); err != nil || got.ID != "u1" {
		t.Fatalf("GetByReferralCode: got %v, err %v", got, err)
	}

	// Codes are matched exactly, not case-folded.
	if _, err := users.GetByReferralCode(ctx, "aaaa1111"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for lowercased code, got %v", err)
	}
	if _, err := users.GetByID(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepositoryGetByIDReturnsCopy(t *testing.T) {
	store := NewStore()
	users := store.Users()
	ctx := context.Background()

	if err := users.Create(ctx, testUser("u1", "alice", "alice@example.com", "AAAA1111", time.Now().UTC())); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := users.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	first.Balance = 9999

	second, err := users.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if second.Balance != 0 {
		t.Fatalf("mutation through returned pointer leaked into the store")
	}
}

func TestUserRepositoryUpdate(t *testing.T) {
	store := NewStore()
	users := store.Users()
	ctx := context.Background()

	seeded := testUser("u1", "alice", "alice@example.com", "AAAA1111", time.Now().UTC())
	if err := users.Create(ctx, seeded); err != nil {
		t.Fatalf("create: %v", err)
	}

	seeded.Balance = 420
	seeded.IsActive = true
	if err := users.Update(ctx, seeded); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := users.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Balance != 420 || !got.IsActive {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := users.Update(ctx, testUser("missing", "bob", "bob@example.com", "BBBB2222", time.Now().UTC())); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestUserRepositoryListReferrals(t *testing.T) {
	store := NewStore()
	users := store.Users()
	ctx := context.Background()
	base := time.Now().UTC()

	referrerID := "u1"
	if err := users.Create(ctx, testUser(referrerID, "alice", "alice@example.com", "AAAA1111", base)); err != nil {
		t.Fatalf("create referrer: %v", err)
	}

	newest := testUser("u3", "carol", "carol@example.com", "CCCC3333", base.Add(2*time.Second))
	newest.ReferredBy = &referrerID
	oldest := testUser("u2", "bob", "bob@example.com", "BBBB2222", base.Add(time.Second))
	oldest.ReferredBy = &referrerID

	for _, u := range []domain.User{newest, oldest} {
		if err := users.Create(ctx, u); err != nil {
			t.Fatalf("create referral: %v", err)
		}
	}

	referrals, err := users.ListReferrals(ctx, referrerID)
	if err != nil {
		t.Fatalf("ListReferrals: %v", err)
	}
	if len(referrals) != 2 {
		t.Fatalf("expected 2 referrals, got %d", len(referrals))
	}
	if referrals[0].Username != "bob" || referrals[1].Username != "carol" {
		t.Fatalf("referrals not ordered oldest first: %s, %s", referrals[0].Username, referrals[1].Username)
	}
}

func TestTransactionRepositoryListByUser(t *testing.T) {
	store := NewStore()
	ledger := store.Transactions()
	ctx := context.Background()
	now := time.Now().UTC()

	entries := []domain.Transaction{
		domain.NewActivationTransaction("t1", "u1", "card", "pay-1", now),
		domain.NewReferralCommission("t2", "u2", "u1", 320, 32, now.Add(time.Millisecond)),
		domain.NewSubReferralCommission("t3", "u2", "u1", now.Add(2*time.Millisecond)),
	}
	for _, entry := range entries {
		if err := ledger.Create(ctx, entry); err != nil {
			t.Fatalf("create entry %s: %v", entry.ID, err)
		}
	}

	forU2, err := ledger.ListByUser(ctx, "u2")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(forU2) != 2 {
		t.Fatalf("expected 2 entries for u2, got %d", len(forU2))
	}
	if forU2[0].ID != "t2" || forU2[1].ID != "t3" {
		t.Fatalf("entries out of order: %s, %s", forU2[0].ID, forU2[1].ID)
	}

	forNobody, err := ledger.ListByUser(ctx, "nobody")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(forNobody) != 0 {
		t.Fatalf("expected no entries, got %d", len(forNobody))
	}
}
