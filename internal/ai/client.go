package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/ai/prompts"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
)

// DefaultModel — модель по умолчанию, переопределяется GEMINI_MODEL.
const DefaultModel = "gemini-2.0-flash"

// Usage — расход токенов одного вызова модели.
// Воркер записывает его в ai_usage_logs.
type Usage struct {
	PromptName    string
	PromptVersion int
	Model         string
	InputTokens   int
	OutputTokens  int
}

// Client — обёртка над Gemini API для всех AI-шагов пайплайна.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient создаёт клиент. Ключ берётся из GEMINI_API_KEY,
// модель — из GEMINI_MODEL.
func NewClient(ctx context.Context) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// Model возвращает имя используемой модели.
func (c *Client) Model() string {
	return c.model
}

// generate выполняет один вызов модели с системным промптом.
// jsonMode включает response_mime_type (несовместим с поиском).
func (c *Client) generate(ctx context.Context, prompt prompts.Prompt, userText string, search, jsonMode bool) (string, *genai.GenerateContentResponse, Usage, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.Text, genai.RoleUser),
		Temperature:       genai.Ptr(float32(0.2)),
	}
	if jsonMode {
		config.ResponseMIMEType = "application/json"
	}
	if search {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	contents := []*genai.Content{
		genai.NewContentFromText(userText, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", nil, Usage{}, mapAPIError(err)
	}

	usage := Usage{
		PromptName:    prompt.Name,
		PromptVersion: prompt.Version,
		Model:         c.model,
	}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	text := resp.Text()
	if text == "" {
		return "", nil, usage, fmt.Errorf("%w: empty response", ErrBadResponse)
	}
	return text, resp, usage, nil
}

// mapAPIError переводит ошибки провайдера в сентинелы пакета.
func mapAPIError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		case apiErr.Code >= 500:
			return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
		}
		return err
	}
	// сетевые ошибки без кода считаем временными
	return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
}

// ParsedIngredient — ингредиент, извлечённый из описания meal.
type ParsedIngredient struct {
	Name       string  `json:"name"`
	State      string  `json:"state"`
	Quantity   string  `json:"quantity"`
	Confidence float64 `json:"confidence"`
}

// MealAnalysis — результат разбора описания meal.
type MealAnalysis struct {
	Ingredients []ParsedIngredient `json:"ingredients"`
	Usage       Usage              `json:"-"`
}

// AnalyzeMeal извлекает ингредиенты из свободного описания еды.
func (c *Client) AnalyzeMeal(ctx context.Context, description string) (*MealAnalysis, error) {
	prompt, err := prompts.Latest(prompts.MealAnalysis)
	if err != nil {
		return nil, err
	}

	text, _, usage, err := c.generate(ctx, prompt, description, false, true)
	if err != nil {
		return nil, err
	}

	var out MealAnalysis
	if err := decodeResponse(text, &out); err != nil {
		return nil, err
	}
	if len(out.Ingredients) == 0 {
		return nil, fmt.Errorf("%w: no ingredients extracted", ErrBadResponse)
	}
	for i := range out.Ingredients {
		out.Ingredients[i].Name = domain.NormalizeIngredientName(out.Ingredients[i].Name)
		if !domain.IngredientState(out.Ingredients[i].State).Valid() {
			out.Ingredients[i].State = string(domain.IngredientStateCooked)
		}
	}
	out.Usage = usage
	return &out, nil
}

// Clarification — уточняющий вопрос по симптому, либо done=true.
type Clarification struct {
	Question string `json:"question"`
	Done     bool   `json:"done"`
	Usage    Usage  `json:"-"`
}

// ClarifySymptom предлагает уточняющий вопрос по записи симптома.
// История предыдущих вопросов и ответов передаётся целиком.
func (c *Client) ClarifySymptom(ctx context.Context, description string, history []domain.ClarificationTurn) (*Clarification, error) {
	if len(history) >= domain.MaxClarificationQuestions {
		return &Clarification{Done: true}, nil
	}

	prompt, err := prompts.Latest(prompts.SymptomClarify)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Symptom: %s\n", description)
	for _, turn := range history {
		fmt.Fprintf(&sb, "Q: %s\nA: %s\n", turn.Question, turn.Answer)
	}

	text, _, usage, err := c.generate(ctx, prompt, sb.String(), false, true)
	if err != nil {
		return nil, err
	}

	var out Clarification
	if err := decodeResponse(text, &out); err != nil {
		return nil, err
	}
	out.Usage = usage
	return &out, nil
}

// Research — результат исследования ингредиента.
type Research struct {
	Summary    string            `json:"summary"`
	RiskLevel  domain.RiskLevel  `json:"risk_level"`
	Mechanisms []string          `json:"mechanisms"`
	Citations  []domain.Citation `json:"-"`
	Usage      Usage             `json:"-"`
}

// ResearchIngredient ищет известные механизмы, которыми ингредиент
// может вызывать наблюдаемые симптомы. Использует веб-поиск; ссылки
// на источники берутся из grounding-метаданных ответа.
func (c *Client) ResearchIngredient(ctx context.Context, name string, symptoms []domain.AssociatedSymptom) (*Research, error) {
	prompt, err := prompts.Latest(prompts.IngredientResearch)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Ingredient: %s\nObserved symptoms:\n", name)
	for _, s := range symptoms {
		fmt.Fprintf(&sb, "- %s (%d occurrences, avg severity %.1f/10)\n",
			s.Name, s.Occurrences, s.AvgSeverity)
	}

	// поиск несовместим с response_mime_type, JSON извлекается из текста
	text, resp, usage, err := c.generate(ctx, prompt, sb.String(), true, false)
	if err != nil {
		return nil, err
	}

	var out Research
	if err := decodeResponse(text, &out); err != nil {
		return nil, err
	}
	if !out.RiskLevel.Valid() {
		out.RiskLevel = domain.RiskUnknown
	}
	out.Citations = extractCitations(resp)
	out.Usage = usage
	return &out, nil
}

// extractCitations собирает источники из grounding-метаданных.
func extractCitations(resp *genai.GenerateContentResponse) []domain.Citation {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}

	var citations []domain.Citation
	seen := make(map[string]bool)
	for _, chunk := range meta.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		citations = append(citations, domain.Citation{
			URL:   chunk.Web.URI,
			Title: chunk.Web.Title,
		})
	}
	return citations
}

// Verdict — решение о роли ингредиента в симптомах.
// MedicalReasoning — медицинское обоснование вердикта, попадает
// в medical_grounding_summary отсеянных ингредиентов.
type Verdict struct {
	Verdict          string `json:"verdict"`
	ConfoundedBy     string `json:"confounded_by"`
	Justification    string `json:"justification"`
	MedicalReasoning string `json:"medical_reasoning"`
	Usage            Usage  `json:"-"`
}

// IsRootCause сообщает, признан ли ингредиент корневой причиной.
func (v *Verdict) IsRootCause() bool {
	return v.Verdict == "root_cause"
}

// ClassifyInput — вход шага классификации.
type ClassifyInput struct {
	Ingredient  string
	Stats       string // человекочитаемая сводка корреляции
	Research    *Research
	Confounders string // сводка co-occurrence
}

// ClassifyRootCause решает, корневая ли причина ингредиент или
// он лишь сопутствует настоящему триггеру. При сомнении модель
// обязана выбирать confounded.
func (c *Client) ClassifyRootCause(ctx context.Context, input ClassifyInput) (*Verdict, error) {
	prompt, err := prompts.Latest(prompts.RootCauseClassify)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Ingredient: %s\n\nCorrelation statistics:\n%s\n", input.Ingredient, input.Stats)
	if input.Research != nil {
		fmt.Fprintf(&sb, "\nMedical context (risk_level=%s):\n%s\n",
			input.Research.RiskLevel, input.Research.Summary)
	}
	if input.Confounders != "" {
		fmt.Fprintf(&sb, "\nCo-occurring ingredients:\n%s\n", input.Confounders)
	}

	text, _, usage, err := c.generate(ctx, prompt, sb.String(), false, true)
	if err != nil {
		return nil, err
	}

	var out Verdict
	if err := decodeResponse(text, &out); err != nil {
		return nil, err
	}
	if out.Verdict != "root_cause" && out.Verdict != "confounded" {
		return nil, fmt.Errorf("%w: unexpected verdict %q", ErrBadResponse, out.Verdict)
	}
	if out.Justification == "" {
		return nil, fmt.Errorf("%w: empty justification", ErrBadResponse)
	}
	out.Usage = usage
	return &out, nil
}

// Report — финальный текст результата для пользователя.
type Report struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Advice string `json:"advice"`

	// ProcessingSuggestions — советы по приготовлению
	// (cooked vs raw, замены), AlternativeMeals — варианты блюд
	// без ингредиента. Оба опциональны.
	ProcessingSuggestions string `json:"processing_suggestions"`
	AlternativeMeals      string `json:"alternative_meals"`

	Usage Usage `json:"-"`
}

// AdaptInput — вход шага адаптации отчёта.
type AdaptInput struct {
	Ingredient    string
	Stats         string
	Research      *Research
	Justification string
}

// AdaptReport переписывает техническую находку простым языком.
func (c *Client) AdaptReport(ctx context.Context, input AdaptInput) (*Report, error) {
	prompt, err := prompts.Latest(prompts.ReportAdapt)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Ingredient: %s\n\nStatistics:\n%s\n", input.Ingredient, input.Stats)
	if input.Research != nil {
		fmt.Fprintf(&sb, "\nMechanisms:\n%s\n", input.Research.Summary)
	}
	if input.Justification != "" {
		fmt.Fprintf(&sb, "\nClassification rationale:\n%s\n", input.Justification)
	}

	text, _, usage, err := c.generate(ctx, prompt, sb.String(), false, true)
	if err != nil {
		return nil, err
	}

	var out Report
	if err := decodeResponse(text, &out); err != nil {
		return nil, err
	}
	if out.Title == "" || out.Body == "" {
		return nil, fmt.Errorf("%w: incomplete report", ErrBadResponse)
	}
	out.Usage = usage
	return &out, nil
}

// Stats — срез статистики ингредиента, который воркер передаёт
// в промпты. Повторяет нужные поля diagnosis.IngredientStats, чтобы
// пакет ai не зависел от пакета diagnosis.
type Stats struct {
	TimesEaten    int
	TimesFollowed int
	Immediate     int
	Delayed       int
	Cumulative    int
	Confidence    float64
	Level         domain.ConfidenceLevel
	Symptoms      []domain.AssociatedSymptom
}

// FormatStats готовит человекочитаемую сводку статистики ингредиента
// для промптов классификации и адаптации.
func FormatStats(st Stats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "eaten %d times, followed by symptoms %d times (confidence %.2f, %s)\n",
		st.TimesEaten, st.TimesFollowed, st.Confidence, st.Level)
	fmt.Fprintf(&sb, "window hits: immediate=%d delayed=%d cumulative=%d\n",
		st.Immediate, st.Delayed, st.Cumulative)
	for _, s := range st.Symptoms {
		fmt.Fprintf(&sb, "symptom %s: %d occurrences, avg severity %.1f/10\n",
			s.Name, s.Occurrences, s.AvgSeverity)
	}
	return sb.String()
}
