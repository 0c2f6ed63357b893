package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/ai"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/mq"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/repo"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/sse"
)

// AIClient — срез методов ai.Client, которые использует API
// (разбор meal и уточнение симптомов). Интерфейс позволяет
// подменять клиент в тестах и поднимать API без AI-ключа.
type AIClient interface {
	Model() string
	AnalyzeMeal(ctx context.Context, description string) (*ai.MealAnalysis, error)
	ClarifySymptom(ctx context.Context, description string, history []domain.ClarificationTurn) (*ai.Clarification, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	userRepo     *repo.UserRepo
	mealRepo     *repo.MealRepo
	symptomRepo  *repo.SymptomRepo
	runRepo      *repo.RunRepo
	resultRepo   *repo.ResultRepo
	feedbackRepo *repo.FeedbackRepo
	exportRepo   *repo.ExportRepo
	usageRepo    *repo.UsageRepo
	ai           AIClient
	publisher    *mq.Publisher
	broker       *sse.Broker
	logger       *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	UserRepo     *repo.UserRepo
	MealRepo     *repo.MealRepo
	SymptomRepo  *repo.SymptomRepo
	RunRepo      *repo.RunRepo
	ResultRepo   *repo.ResultRepo
	FeedbackRepo *repo.FeedbackRepo
	ExportRepo   *repo.ExportRepo
	UsageRepo    *repo.UsageRepo

	// AI — клиент для разбора meals и уточнения симптомов.
	// Nil допустим: соответствующие endpoint'ы вернут 503.
	AI AIClient

	// Publisher — публикация событий о новых runs.
	// Nil допустим: воркер подхватит runs через polling.
	Publisher *mq.Publisher

	// Broker — брокер SSE-событий.
	Broker *sse.Broker

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		userRepo:     cfg.UserRepo,
		mealRepo:     cfg.MealRepo,
		symptomRepo:  cfg.SymptomRepo,
		runRepo:      cfg.RunRepo,
		resultRepo:   cfg.ResultRepo,
		feedbackRepo: cfg.FeedbackRepo,
		exportRepo:   cfg.ExportRepo,
		usageRepo:    cfg.UsageRepo,
		ai:           cfg.AI,
		publisher:    cfg.Publisher,
		broker:       cfg.Broker,
		logger:       cfg.Logger,
	}
}

// logAIUsage записывает расход токенов AI-вызова из API.
// Best effort: ошибка учёта не влияет на ответ.
func (h *Handler) logAIUsage(r *http.Request, usage ai.Usage) {
	if h.usageRepo == nil {
		return
	}

	err := h.usageRepo.Create(r.Context(), &domain.AIUsageLog{
		ID:            uuid.New(),
		UserID:        UserID(r.Context()),
		Operation:     usage.PromptName,
		PromptVersion: usage.PromptVersion,
		Model:         usage.Model,
		InputTokens:   usage.InputTokens,
		OutputTokens:  usage.OutputTokens,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		h.logger.Warn("failed to log ai usage", "operation", usage.PromptName, "error", err)
	}
}
