package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ataa/internal/domain"
)

type casePayload struct {
	ID                 string     `json:"id"`
	ExternalID         string     `json:"external_id"`
	Title              string     `json:"title"`
	Category           string     `json:"category"`
	TargetAmount       string     `json:"target_amount"`
	CurrentAmount      string     `json:"current_amount"`
	FirstContributedAt *time.Time `json:"first_contributed_at,omitempty"`
}

func (a *App) CasesList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	cases, err := a.Cases.List(r.Context(), limit)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load cases")
		return
	}
	items := make([]casePayload, 0, len(cases))
	for i := range cases {
		items = append(items, toCasePayload(&cases[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) CaseGet(w http.ResponseWriter, r *http.Request) {
	c, err := a.Cases.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "case not found")
		return
	}
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load case")
		return
	}
	a.json(w, http.StatusOK, toCasePayload(c))
}

func toCasePayload(c *domain.Case) casePayload {
	return casePayload{
		ID:                 c.ID,
		ExternalID:         c.ExternalID,
		Title:              c.Title,
		Category:           c.Category,
		TargetAmount:       c.TargetAmount.String(),
		CurrentAmount:      c.CurrentAmount.String(),
		FirstContributedAt: c.FirstContributedAt,
	}
}
