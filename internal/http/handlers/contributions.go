package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ataa/internal/approval"
	"ataa/internal/domain"
	"ataa/internal/middleware"
)

type statusUpdateRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason"`
	AdminComment    string `json:"admin_comment"`
	DonorReply      string `json:"donor_reply"`
	PaymentProofURL string `json:"payment_proof_url"`
}

type contributionPayload struct {
	ID            string    `json:"id"`
	CaseID        string    `json:"case_id"`
	DonorIdentity string    `json:"donor_identity"`
	Amount        string    `json:"amount"`
	Status        string    `json:"status"`
	ContributedAt time.Time `json:"contributed_at"`
}

type approvalPayload struct {
	Status            string     `json:"status"`
	RejectionReason   string     `json:"rejection_reason,omitempty"`
	AdminComment      string     `json:"admin_comment,omitempty"`
	DonorReply        string     `json:"donor_reply,omitempty"`
	PaymentProofURL   string     `json:"payment_proof_url,omitempty"`
	ResubmissionCount int        `json:"resubmission_count"`
	AdminID           string     `json:"admin_id,omitempty"`
	DonorRepliedAt    *time.Time `json:"donor_replied_at,omitempty"`
}

// ContributionStatusUpdate applies an admin decision to a contribution. The
// transition is authoritative; notification delivery is best effort.
func (a *App) ContributionStatusUpdate(w http.ResponseWriter, r *http.Request) {
	contributionID := chi.URLParam(r, "id")

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	decision := approval.Decision{
		Status:          domain.ContributionStatus(req.Status),
		RejectionReason: req.RejectionReason,
		AdminComment:    req.AdminComment,
		DonorReply:      req.DonorReply,
		PaymentProofURL: req.PaymentProofURL,
		AdminID:         r.Header.Get("X-Admin-ID"),
	}

	result, err := a.Reconciler.Apply(r.Context(), contributionID, decision)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "contribution not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			a.error(w, http.StatusUnprocessableEntity, "invalid_transition", err.Error())
		default:
			a.Logger.Error().Err(err).Str("contribution_id", contributionID).Msg("status update failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to update status")
		}
		return
	}

	a.notifyDecision(r, result)

	a.json(w, http.StatusOK, map[string]any{
		"contribution": toContributionPayload(result.Contribution),
		"approval":     toApprovalPayload(result.Approval),
	})
}

// ContributionGet returns one contribution with its approval audit row state.
func (a *App) ContributionGet(w http.ResponseWriter, r *http.Request) {
	contribution, err := a.Contributions.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "contribution not found")
		return
	}
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load contribution")
		return
	}
	a.json(w, http.StatusOK, toContributionPayload(contribution))
}

func (a *App) notifyDecision(r *http.Request, result *approval.Result) {
	status := result.Contribution.Status
	if status != domain.StatusApproved && status != domain.StatusRejected {
		return
	}
	title := ""
	if c, err := a.Cases.GetByID(r.Context(), result.Contribution.CaseID); err == nil {
		title = c.Title
	}
	a.Dispatcher.ContributionDecided(r.Context(), result.Contribution, title, middleware.LocaleFromContext(r.Context()))
}

func toContributionPayload(c *domain.Contribution) contributionPayload {
	return contributionPayload{
		ID:            c.ID,
		CaseID:        c.CaseID,
		DonorIdentity: c.DonorIdentity,
		Amount:        c.Amount.String(),
		Status:        string(c.Status),
		ContributedAt: c.ContributedAt,
	}
}

func toApprovalPayload(s *domain.ApprovalStatus) approvalPayload {
	return approvalPayload{
		Status:            string(s.Status),
		RejectionReason:   s.RejectionReason,
		AdminComment:      s.AdminComment,
		DonorReply:        s.DonorReply,
		PaymentProofURL:   s.PaymentProofURL,
		ResubmissionCount: s.ResubmissionCount,
		AdminID:           s.AdminID,
		DonorRepliedAt:    s.DonorRepliedAt,
	}
}
