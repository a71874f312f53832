package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestDashboardOverview(t *testing.T) {
	f := newActivationFixture(t)
	dashboard := NewDashboardService(f.store.Users(), f.store.Transactions())

	referrer := f.seedUser(t, 1, nil, true, 0)
	first := f.seedUser(t, 2, &referrer.ID, false, 0)
	second := f.seedUser(t, 3, &referrer.ID, false, 0)

	if _, err := f.service.Activate(context.Background(), first.ID, "card", "pay-002"); err != nil {
		t.Fatalf("activate first: %v", err)
	}
	if _, err := f.service.Activate(context.Background(), second.ID, "card", "pay-003"); err != nil {
		t.Fatalf("activate second: %v", err)
	}

	overview, err := dashboard.Overview(context.Background(), referrer.ID)
	if err != nil {
		t.Fatalf("Overview returned error: %v", err)
	}

	if overview.User.ID != referrer.ID {
		t.Fatalf("overview user = %s, want %s", overview.User.ID, referrer.ID)
	}
	if overview.User.ReferralCount != 2 {
		t.Fatalf("referral count = %d, want 2", overview.User.ReferralCount)
	}
	if len(overview.Transactions) != 2 {
		t.Fatalf("expected 2 commission entries, got %d", len(overview.Transactions))
	}
	if len(overview.Referrals) != 2 {
		t.Fatalf("expected 2 referrals, got %d", len(overview.Referrals))
	}

	// Referrals come back oldest first.
	if overview.Referrals[0].Username != first.Username || overview.Referrals[1].Username != second.Username {
		t.Fatalf("unexpected referral order: %s, %s", overview.Referrals[0].Username, overview.Referrals[1].Username)
	}
	for _, ref := range overview.Referrals {
		if !ref.IsActive {
			t.Fatalf("referral %s should be active", ref.Username)
		}
	}
}

func TestDashboardOverviewUnknownUser(t *testing.T) {
	f := newActivationFixture(t)
	dashboard := NewDashboardService(f.store.Users(), f.store.Transactions())

	if _, err := dashboard.Overview(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestDashboardReferralLink(t *testing.T) {
	f := newActivationFixture(t)
	dashboard := NewDashboardService(f.store.Users(), f.store.Transactions())

	user := f.seedUser(t, 1, nil, true, 0)

	code, link, err := dashboard.ReferralLink(context.Background(), user.ID, "https://membership.example.com")
	if err != nil {
		t.Fatalf("ReferralLink returned error: %v", err)
	}

	if code != user.ReferralCode {
		t.Fatalf("code = %s, want %s", code, user.ReferralCode)
	}
	want := fmt.Sprintf("https://membership.example.com/register?ref=%s", user.ReferralCode)
	if link != want {
		t.Fatalf("link = %s, want %s", link, want)
	}
}
