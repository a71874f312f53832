package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/itoshi/membership-service/internal/repository/memory"
)

const strongTestPassword = "Sup3r!SecurePass#7890"

func newRegistrationFixture(t *testing.T) (*memory.Store, *RegistrationService, *recordingPublisher) {
	t.Helper()

	store := memory.NewStore()
	events := &recordingPublisher{}
	service := NewRegistrationService(store.Users(), nil).WithEventPublisher(events)
	return store, service, events
}

func TestRegisterCreatesInactiveAccount(t *testing.T) {
	_, service, events := newRegistrationFixture(t)

	user, err := service.Register(context.Background(), "alice", "alice@example.com", "", strongTestPassword, "")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if user.IsActive {
		t.Fatalf("expected new account to be inactive")
	}
	if user.Balance != 0 {
		t.Fatalf("balance = %d, want 0", user.Balance)
	}
	if user.ReferredBy != nil {
		t.Fatalf("expected no referrer")
	}
	if user.PasswordHash == "" || user.PasswordHash == strongTestPassword {
		t.Fatalf("expected password to be hashed")
	}

	if len(user.ReferralCode) != 8 {
		t.Fatalf("referral code %q length = %d, want 8", user.ReferralCode, len(user.ReferralCode))
	}
	if user.ReferralCode != strings.ToUpper(user.ReferralCode) {
		t.Fatalf("referral code %q is not uppercase", user.ReferralCode)
	}

	if len(events.registered) != 1 {
		t.Fatalf("expected one registration event, got %d", len(events.registered))
	}
}

func TestRegisterLinksKnownReferralCode(t *testing.T) {
	_, service, _ := newRegistrationFixture(t)

	referrer, err := service.Register(context.Background(), "alice", "alice@example.com", "", strongTestPassword, "")
	if err != nil {
		t.Fatalf("register referrer: %v", err)
	}

	referred, err := service.Register(context.Background(), "bob", "bob@example.com", "", strongTestPassword, referrer.ReferralCode)
	if err != nil {
		t.Fatalf("register referred: %v", err)
	}

	if referred.ReferredBy == nil || *referred.ReferredBy != referrer.ID {
		t.Fatalf("expected referred_by %s, got %v", referrer.ID, referred.ReferredBy)
	}
}

func TestRegisterIgnoresUnknownReferralCode(t *testing.T) {
	_, service, _ := newRegistrationFixture(t)

	user, err := service.Register(context.Background(), "alice", "alice@example.com", "", strongTestPassword, "NOPE0000")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ReferredBy != nil {
		t.Fatalf("expected unknown code to be ignored, got referrer %v", *user.ReferredBy)
	}
}

func TestRegisterRejectsDuplicateIdentity(t *testing.T) {
	_, service, _ := newRegistrationFixture(t)

	if _, err := service.Register(context.Background(), "alice", "alice@example.com", "", strongTestPassword, ""); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	if _, err := service.Register(context.Background(), "alice", "other@example.com", "", strongTestPassword, ""); !errors.Is(err, ErrDuplicateIdentity) {
		t.Fatalf("duplicate username: expected ErrDuplicateIdentity, got %v", err)
	}
	if _, err := service.Register(context.Background(), "other", "alice@example.com", "", strongTestPassword, ""); !errors.Is(err, ErrDuplicateIdentity) {
		t.Fatalf("duplicate email: expected ErrDuplicateIdentity, got %v", err)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	_, service, _ := newRegistrationFixture(t)

	if _, err := service.Register(context.Background(), "alice", "alice@example.com", "", "password1", ""); !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected ErrPasswordPolicyViolation, got %v", err)
	}
}

func TestRegisterRequiresIdentityFields(t *testing.T) {
	_, service, _ := newRegistrationFixture(t)

	if _, err := service.Register(context.Background(), "", "alice@example.com", "", strongTestPassword, ""); err == nil {
		t.Fatalf("expected error for missing username")
	}
	if _, err := service.Register(context.Background(), "alice", "", "", strongTestPassword, ""); err == nil {
		t.Fatalf("expected error for missing email")
	}
	if _, err := service.Register(context.Background(), "alice", "alice@example.com", "", "", ""); err == nil {
		t.Fatalf("expected error for missing password")
	}
}

func TestRegisterStoresTrimmedPhone(t *testing.T) {
	_, service, _ := newRegistrationFixture(t)

	user, err := service.Register(context.Background(), "alice", "alice@example.com", "  +15550101  ", strongTestPassword, "")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Phone == nil || *user.Phone != "+15550101" {
		t.Fatalf("expected trimmed phone, got %v", user.Phone)
	}
}
