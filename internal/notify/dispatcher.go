package notify

import (
	"context"

	"ataa/internal/domain"
	"ataa/internal/infra"
)

// Dispatcher writes best-effort notification rows for approval transitions.
// Nothing here may fail the decision that triggered it: every error is logged
// and swallowed.
type Dispatcher struct {
	notifications domain.NotificationRepository
	admins        domain.AdminRoleRepository
	logger        infra.Logger
}

// NewDispatcher wires the dispatcher's repositories.
func NewDispatcher(notifications domain.NotificationRepository, admins domain.AdminRoleRepository, logger infra.Logger) *Dispatcher {
	return &Dispatcher{notifications: notifications, admins: admins, logger: logger}
}

// ContributionDecided fans a localized message out to the admin recipients and
// the contribution's donor. Only approved and rejected transitions notify.
func (d *Dispatcher) ContributionDecided(ctx context.Context, contribution *domain.Contribution, caseTitle, locale string) {
	var titleKey, bodyKey string
	switch contribution.Status {
	case domain.StatusApproved:
		titleKey, bodyKey = keyApprovedTitle, keyApprovedBody
	case domain.StatusRejected:
		titleKey, bodyKey = keyRejectedTitle, keyRejectedBody
	default:
		return
	}

	p := printer(locale)
	title := p.Sprintf(titleKey)
	body := p.Sprintf(bodyKey, contribution.Amount.String(), caseTitle)

	recipients := d.resolveRecipients(ctx, contribution)
	for _, recipient := range recipients {
		err := d.notifications.Create(ctx, &domain.Notification{
			Recipient:      recipient,
			Title:          title,
			Body:           body,
			Locale:         locale,
			ContributionID: contribution.ID,
		})
		if err != nil {
			d.logger.Warn().Err(err).Str("recipient", recipient).Msg("notify: write failed, dropping notification")
		}
	}
}

// resolveRecipients collects the admin-role identities plus the donor,
// de-duplicated. A failed admin lookup degrades to donor-only delivery.
func (d *Dispatcher) resolveRecipients(ctx context.Context, contribution *domain.Contribution) []string {
	seen := make(map[string]struct{})
	var recipients []string

	admins, err := d.admins.ListAdminIdentities(ctx)
	if err != nil {
		d.logger.Warn().Err(err).Msg("notify: admin lookup failed")
	}
	for _, admin := range admins {
		if _, ok := seen[admin]; ok {
			continue
		}
		seen[admin] = struct{}{}
		recipients = append(recipients, admin)
	}
	if contribution.DonorIdentity != "" {
		if _, ok := seen[contribution.DonorIdentity]; !ok {
			recipients = append(recipients, contribution.DonorIdentity)
		}
	}
	return recipients
}
