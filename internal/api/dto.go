package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
)

// Meal DTOs

// MealIngredientInput — ингредиент в запросе на создание meal.
type MealIngredientInput struct {
	Name         string   `json:"name"`
	State        string   `json:"state,omitempty"`
	Quantity     string   `json:"quantity,omitempty"`
	AIConfidence *float64 `json:"ai_confidence,omitempty"`
}

// CreateMealRequest — запрос на создание meal (черновик).
type CreateMealRequest struct {
	Name          string                `json:"name"`
	Notes         string                `json:"notes,omitempty"`
	EatenAt       *time.Time            `json:"eaten_at,omitempty"`
	LocalTimezone string                `json:"local_timezone,omitempty"`
	Ingredients   []MealIngredientInput `json:"ingredients"`
}

// AnalyzeMealRequest — запрос на AI-разбор описания еды.
type AnalyzeMealRequest struct {
	Description string `json:"description"`
}

// Symptom DTOs

// CreateSymptomRequest — запрос на создание симптома.
type CreateSymptomRequest struct {
	Description          string                     `json:"description"`
	Tags                 []domain.SymptomTag        `json:"tags"`
	StartTime            *time.Time                 `json:"start_time,omitempty"`
	EndTime              *time.Time                 `json:"end_time,omitempty"`
	EpisodeID            *uuid.UUID                 `json:"episode_id,omitempty"`
	ClarificationHistory []domain.ClarificationTurn `json:"clarification_history,omitempty"`
}

// ClarifySymptomRequest — запрос на уточняющий вопрос.
type ClarifySymptomRequest struct {
	Description string                     `json:"description"`
	History     []domain.ClarificationTurn `json:"history,omitempty"`
}

// Diagnosis DTOs

// RunResponse — ответ с diagnosis run.
type RunResponse struct {
	ID                   uuid.UUID        `json:"id"`
	Status               domain.RunStatus `json:"status"`
	TotalIngredients     int              `json:"total_ingredients"`
	CompletedIngredients int              `json:"completed_ingredients"`
	Progress             float64          `json:"progress"`
	MealsAnalyzed        int              `json:"meals_analyzed"`
	SymptomsAnalyzed     int              `json:"symptoms_analyzed"`
	SufficientData       bool             `json:"sufficient_data"`
	Model                string           `json:"model,omitempty"`
	Error                string           `json:"error,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	StartedAt            *time.Time       `json:"started_at,omitempty"`
	CompletedAt          *time.Time       `json:"completed_at,omitempty"`
}

// RunFromDomain конвертирует domain.DiagnosisRun в RunResponse.
func RunFromDomain(r domain.DiagnosisRun) RunResponse {
	return RunResponse{
		ID:                   r.ID,
		Status:               r.Status,
		TotalIngredients:     r.TotalIngredients,
		CompletedIngredients: r.CompletedIngredients,
		Progress:             r.Progress(),
		MealsAnalyzed:        r.MealsAnalyzed,
		SymptomsAnalyzed:     r.SymptomsAnalyzed,
		SufficientData:       r.SufficientData,
		Model:                r.Model,
		Error:                r.Error,
		CreatedAt:            r.CreatedAt,
		StartedAt:            r.StartedAt,
		CompletedAt:          r.CompletedAt,
	}
}

// RunResultsResponse — результаты завершённого run'а.
type RunResultsResponse struct {
	Results               []domain.DiagnosisResult      `json:"results"`
	DiscountedIngredients []domain.DiscountedIngredient `json:"discounted_ingredients"`
}

// Auth DTOs

// LoginRequest — запрос на вход.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AcceptInviteRequest — регистрация по приглашению.
type AcceptInviteRequest struct {
	InviteToken string `json:"invite_token"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// CreateInviteRequest — создание приглашения (admin).
type CreateInviteRequest struct {
	Email string `json:"email"`
}

// SessionResponse — ответ с токеном сессии.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Settings DTOs

// UpdateSettingsRequest — частичное обновление настроек.
type UpdateSettingsRequest struct {
	DataRetentionDays *int    `json:"data_retention_days,omitempty"`
	Timezone          *string `json:"timezone,omitempty"`
	AcceptDisclaimer  bool    `json:"accept_disclaimer,omitempty"`
}

// Feedback DTOs

// FeedbackRequest — оценка записи или результата.
type FeedbackRequest struct {
	SubjectType domain.SubjectType `json:"subject_type"`
	SubjectID   uuid.UUID          `json:"subject_id"`
	Rating      int                `json:"rating"`
	Comment     string             `json:"comment,omitempty"`
}
