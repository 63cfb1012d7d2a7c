package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ataa/internal/domain"
)

type fakeNotifications struct {
	created []*domain.Notification
	err     error
}

func (f *fakeNotifications) Create(_ context.Context, n *domain.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, n)
	return nil
}

type fakeAdmins struct {
	identities []string
	err        error
}

func (f *fakeAdmins) ListAdminIdentities(context.Context) ([]string, error) {
	return f.identities, f.err
}

func approvedContribution() *domain.Contribution {
	return &domain.Contribution{
		ID:            "c1",
		CaseID:        "case1",
		DonorIdentity: "donor-1",
		Amount:        decimal.NewFromInt(500),
		Status:        domain.StatusApproved,
	}
}

func TestContributionDecidedNotifiesAdminsAndDonor(t *testing.T) {
	notifications := &fakeNotifications{}
	admins := &fakeAdmins{identities: []string{"admin-1", "admin-2"}}
	d := NewDispatcher(notifications, admins, zerolog.Nop())

	d.ContributionDecided(context.Background(), approvedContribution(), "حالة علاج", "ar")

	if len(notifications.created) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(notifications.created))
	}
	body := notifications.created[0].Body
	if !strings.Contains(body, "500") || !strings.Contains(body, "حالة علاج") {
		t.Fatalf("expected amount and case title in body, got %q", body)
	}
	if notifications.created[0].Title != "تم قبول المساهمة" {
		t.Fatalf("expected Arabic title, got %q", notifications.created[0].Title)
	}
}

func TestContributionDecidedEnglishLocale(t *testing.T) {
	notifications := &fakeNotifications{}
	d := NewDispatcher(notifications, &fakeAdmins{}, zerolog.Nop())

	d.ContributionDecided(context.Background(), approvedContribution(), "Medical case", "en")

	if len(notifications.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifications.created))
	}
	if notifications.created[0].Title != "Contribution approved" {
		t.Fatalf("expected English title, got %q", notifications.created[0].Title)
	}
}

func TestContributionDecidedIgnoresAcknowledged(t *testing.T) {
	notifications := &fakeNotifications{}
	d := NewDispatcher(notifications, &fakeAdmins{identities: []string{"admin-1"}}, zerolog.Nop())

	contribution := approvedContribution()
	contribution.Status = domain.StatusAcknowledged
	d.ContributionDecided(context.Background(), contribution, "title", "ar")

	if len(notifications.created) != 0 {
		t.Fatalf("expected no notifications, got %d", len(notifications.created))
	}
}

func TestContributionDecidedSwallowsFailures(t *testing.T) {
	notifications := &fakeNotifications{err: errors.New("notifications table gone")}
	admins := &fakeAdmins{err: errors.New("roles unavailable")}
	d := NewDispatcher(notifications, admins, zerolog.Nop())

	// Must not panic or propagate anything.
	d.ContributionDecided(context.Background(), approvedContribution(), "title", "ar")
}

func TestContributionDecidedDeduplicatesDonorAdmin(t *testing.T) {
	notifications := &fakeNotifications{}
	admins := &fakeAdmins{identities: []string{"donor-1", "admin-1"}}
	d := NewDispatcher(notifications, admins, zerolog.Nop())

	d.ContributionDecided(context.Background(), approvedContribution(), "title", "ar")

	if len(notifications.created) != 2 {
		t.Fatalf("expected de-duplicated recipients, got %d", len(notifications.created))
	}
}
