package domain

import (
	"time"

	"github.com/google/uuid"
)

// DiagnosisRun — батч-анализ истории питания пользователя.
//
// Run создаётся когда:
// - Пользователь запускает диагностику через API/CLI
// - (future) Scheduler запускает периодический пересчёт
//
// Прогресс считается по ингредиентам: каждый ингредиент проходит
// через пайплайн research → classify → adapt и увеличивает
// CompletedIngredients. Run завершается, когда обработаны все.
type DiagnosisRun struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// UserID — пользователь, чьи данные анализируются.
	UserID uuid.UUID `json:"user_id"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// TotalIngredients — сколько ингредиентов предстоит обработать.
	TotalIngredients int `json:"total_ingredients"`

	// CompletedIngredients — сколько ингредиентов уже обработано.
	// Инвариант: CompletedIngredients <= TotalIngredients.
	CompletedIngredients int `json:"completed_ingredients"`

	// MealsAnalyzed — количество meals в окне анализа.
	MealsAnalyzed int `json:"meals_analyzed"`

	// SymptomsAnalyzed — количество симптомов в окне анализа.
	SymptomsAnalyzed int `json:"symptoms_analyzed"`

	// SufficientData — хватило ли данных для статистики.
	// false → run завершается без results.
	SufficientData bool `json:"sufficient_data"`

	// Model — модель, использованная для анализа.
	Model string `json:"model,omitempty"`

	// InputTokens/OutputTokens — суммарный расход токенов по run.
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	// Error — текст ошибки, если run завершился failed.
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt — время начала обработки (статус стал processing).
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt — время завершения (completed или failed).
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Duration возвращает продолжительность обработки.
// Возвращает 0, если run ещё не завершён.
func (r *DiagnosisRun) Duration() time.Duration {
	if r.StartedAt == nil || r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён.
func (r *DiagnosisRun) IsFinished() bool {
	return r.Status.IsTerminal()
}

// Progress возвращает долю обработанных ингредиентов [0..1].
func (r *DiagnosisRun) Progress() float64 {
	if r.TotalIngredients == 0 {
		return 0
	}
	return float64(r.CompletedIngredients) / float64(r.TotalIngredients)
}

// MarkProcessing переводит run в статус processing.
func (r *DiagnosisRun) MarkProcessing() {
	now := time.Now()
	r.Status = RunStatusProcessing
	r.StartedAt = &now
}

// MarkCompleted переводит run в статус completed.
func (r *DiagnosisRun) MarkCompleted() {
	now := time.Now()
	r.Status = RunStatusCompleted
	r.CompletedAt = &now
}

// MarkFailed переводит run в статус failed с ошибкой.
func (r *DiagnosisRun) MarkFailed(err string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.CompletedAt = &now
	r.Error = err
}
