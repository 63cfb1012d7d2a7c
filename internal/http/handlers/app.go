package handlers

import (
	"encoding/json"
	"net/http"

	"ataa/internal/approval"
	"ataa/internal/domain"
	"ataa/internal/infra"
	"ataa/internal/notify"
)

// App bundles the dependencies shared by the HTTP handlers.
type App struct {
	Logger        infra.Logger
	Cases         domain.CaseRepository
	Contributions domain.ContributionRepository
	Reconciler    *approval.Reconciler
	Dispatcher    *notify.Dispatcher
}

func NewApp(logger infra.Logger, cases domain.CaseRepository, contributions domain.ContributionRepository, reconciler *approval.Reconciler, dispatcher *notify.Dispatcher) *App {
	return &App{
		Logger:        logger,
		Cases:         cases,
		Contributions: contributions,
		Reconciler:    reconciler,
		Dispatcher:    dispatcher,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, message string) {
	a.json(w, code, map[string]any{"error": map[string]string{"code": slug, "message": message}})
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
