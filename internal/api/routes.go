package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		RequestID(),
		Logging(h.logger),
		Auth(h.userRepo, h.logger),
	)

	// Login и приём приглашения не требуют резолва пользователя
	public := Chain(
		Recovery(h.logger),
		RequestID(),
		Logging(h.logger),
	)

	// Auth
	mux.Handle("POST /api/v1/auth/login", public(http.HandlerFunc(h.Login)))
	mux.Handle("POST /api/v1/auth/logout", public(http.HandlerFunc(h.Logout)))
	mux.Handle("POST /api/v1/invites/accept", public(http.HandlerFunc(h.AcceptInvite)))
	mux.Handle("POST /api/v1/invites", chain(http.HandlerFunc(h.CreateInvite)))
	mux.Handle("GET /api/v1/auth/me", chain(http.HandlerFunc(h.Me)))

	// Meals
	mux.Handle("GET /api/v1/meals", chain(http.HandlerFunc(h.ListMeals)))
	mux.Handle("POST /api/v1/meals", chain(http.HandlerFunc(h.CreateMeal)))
	mux.Handle("POST /api/v1/meals/analyze", chain(http.HandlerFunc(h.AnalyzeMeal)))
	mux.Handle("GET /api/v1/meals/{id}", chain(http.HandlerFunc(h.GetMeal)))
	mux.Handle("POST /api/v1/meals/{id}/publish", chain(http.HandlerFunc(h.PublishMeal)))
	mux.Handle("DELETE /api/v1/meals/{id}", chain(http.HandlerFunc(h.DeleteMeal)))

	// Symptoms
	mux.Handle("GET /api/v1/symptoms", chain(http.HandlerFunc(h.ListSymptoms)))
	mux.Handle("POST /api/v1/symptoms", chain(http.HandlerFunc(h.CreateSymptom)))
	mux.Handle("POST /api/v1/symptoms/clarify", chain(http.HandlerFunc(h.ClarifySymptom)))
	mux.Handle("GET /api/v1/symptoms/{id}", chain(http.HandlerFunc(h.GetSymptom)))
	mux.Handle("DELETE /api/v1/symptoms/{id}", chain(http.HandlerFunc(h.DeleteSymptom)))

	// Diagnosis
	mux.Handle("GET /api/v1/diagnosis/runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("POST /api/v1/diagnosis/runs", chain(http.HandlerFunc(h.CreateRun)))
	mux.Handle("GET /api/v1/diagnosis/runs/{id}", chain(http.HandlerFunc(h.GetRun)))
	mux.Handle("GET /api/v1/diagnosis/runs/{id}/results", chain(http.HandlerFunc(h.GetRunResults)))
	mux.Handle("GET /api/v1/diagnosis/runs/{id}/discounted", chain(http.HandlerFunc(h.GetRunDiscounted)))
	mux.Handle("GET /api/v1/diagnosis/runs/{id}/events", chain(http.HandlerFunc(h.StreamRunEvents)))

	// Settings
	mux.Handle("GET /api/v1/settings", chain(http.HandlerFunc(h.GetSettings)))
	mux.Handle("PUT /api/v1/settings", chain(http.HandlerFunc(h.UpdateSettings)))

	// Feedback
	mux.Handle("GET /api/v1/feedback", chain(http.HandlerFunc(h.ListFeedback)))
	mux.Handle("POST /api/v1/feedback", chain(http.HandlerFunc(h.UpsertFeedback)))

	// Exports
	mux.Handle("GET /api/v1/exports", chain(http.HandlerFunc(h.ListExports)))
	mux.Handle("POST /api/v1/exports", chain(http.HandlerFunc(h.CreateExport)))
	mux.Handle("GET /api/v1/exports/{id}/download", chain(http.HandlerFunc(h.DownloadExport)))
}
