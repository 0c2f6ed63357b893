package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// MealIngredientResponse — ингредиент meal из API.
type MealIngredientResponse struct {
	ID             string `json:"id"`
	IngredientName string `json:"ingredient_name"`
	State          string `json:"state"`
	Quantity       string `json:"quantity,omitempty"`
}

// MealResponse — meal из API.
type MealResponse struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Status      string                   `json:"status"`
	EatenAt     string                   `json:"eaten_at"`
	Ingredients []MealIngredientResponse `json:"ingredients,omitempty"`
	CreatedAt   string                   `json:"created_at"`
}

// ParsedIngredientResponse — ингредиент из AI-разбора описания еды.
type ParsedIngredientResponse struct {
	Name       string   `json:"name"`
	State      string   `json:"state"`
	Quantity   string   `json:"quantity,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// MealAnalysisResponse — результат AI-разбора описания еды.
type MealAnalysisResponse struct {
	Ingredients []ParsedIngredientResponse `json:"ingredients"`
}

// SymptomTagInput — тег симптома.
type SymptomTagInput struct {
	Name     string `json:"name"`
	Severity int    `json:"severity"`
}

// SymptomResponse — symptom из API.
type SymptomResponse struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	Tags        []SymptomTagInput `json:"tags,omitempty"`
	StartTime   string            `json:"start_time"`
	EndTime     string            `json:"end_time,omitempty"`
	CreatedAt   string            `json:"created_at"`
}

// RunResponse — diagnosis run из API.
type RunResponse struct {
	ID                   string  `json:"id"`
	Status               string  `json:"status"`
	TotalIngredients     int     `json:"total_ingredients"`
	CompletedIngredients int     `json:"completed_ingredients"`
	Progress             float64 `json:"progress"`
	MealsAnalyzed        int     `json:"meals_analyzed"`
	SufficientData       bool    `json:"sufficient_data"`
	Error                string  `json:"error,omitempty"`
	CreatedAt            string  `json:"created_at"`
}

// ResultResponse — результат диагностики из API.
type ResultResponse struct {
	ID                      string  `json:"id"`
	IngredientID            string  `json:"ingredient_id"`
	ConfidenceScore         float64 `json:"confidence_score"`
	ConfidenceLevel         string  `json:"confidence_level"`
	TimesEaten              int     `json:"times_eaten"`
	TimesFollowedBySymptoms int     `json:"times_followed_by_symptoms"`
	DiagnosisSummary        string  `json:"diagnosis_summary"`
	RecommendationsSummary  string  `json:"recommendations_summary"`
}

// DiscountedResponse — отсеянный ингредиент из API.
type DiscountedResponse struct {
	ID                   string `json:"id"`
	IngredientID         string `json:"ingredient_id"`
	ConfoundedBy         string `json:"confounded_by,omitempty"`
	DiscardJustification string `json:"discard_justification"`
}

// RunResultsResponse — результаты завершённого run'а.
type RunResultsResponse struct {
	Results               []ResultResponse     `json:"results"`
	DiscountedIngredients []DiscountedResponse `json:"discounted_ingredients"`
}

// --- Request types ---

// MealIngredientInput — ингредиент в запросе на создание meal.
type MealIngredientInput struct {
	Name     string `json:"name"`
	State    string `json:"state,omitempty"`
	Quantity string `json:"quantity,omitempty"`
}

// CreateMealRequest — создание meal.
type CreateMealRequest struct {
	Name        string                `json:"name"`
	Notes       string                `json:"notes,omitempty"`
	EatenAt     *time.Time            `json:"eaten_at,omitempty"`
	Ingredients []MealIngredientInput `json:"ingredients"`
}

// CreateSymptomRequest — создание symptom.
type CreateSymptomRequest struct {
	Description string            `json:"description"`
	Tags        []SymptomTagInput `json:"tags,omitempty"`
	StartTime   *time.Time        `json:"start_time,omitempty"`
}

// ListOpts — параметры листинга.
type ListOpts struct {
	Status string
	Limit  int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Bloaty API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
// Пустой token означает single-user режим (без заголовка Authorization).
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Meals ---

// ListMeals возвращает meals.
func (c *Client) ListMeals(opts ListOpts) ([]MealResponse, error) {
	params := url.Values{}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var meals []MealResponse
	err := c.list("/api/v1/meals", params, &meals)
	return meals, err
}

// CreateMeal создаёт meal.
func (c *Client) CreateMeal(req CreateMealRequest) (*MealResponse, error) {
	var meal MealResponse
	err := c.post("/api/v1/meals", req, &meal)
	return &meal, err
}

// GetMeal возвращает meal по ID.
func (c *Client) GetMeal(id string) (*MealResponse, error) {
	var meal MealResponse
	err := c.get("/api/v1/meals/"+id, &meal)
	return &meal, err
}

// PublishMeal публикует черновик.
func (c *Client) PublishMeal(id string) (*MealResponse, error) {
	var meal MealResponse
	err := c.post("/api/v1/meals/"+id+"/publish", nil, &meal)
	return &meal, err
}

// DeleteMeal удаляет meal.
func (c *Client) DeleteMeal(id string) error {
	return c.delete("/api/v1/meals/" + id)
}

// AnalyzeMeal разбирает описание еды на ингредиенты через AI.
func (c *Client) AnalyzeMeal(description string) (*MealAnalysisResponse, error) {
	body := map[string]string{"description": description}
	var analysis MealAnalysisResponse
	err := c.post("/api/v1/meals/analyze", body, &analysis)
	return &analysis, err
}

// --- Symptoms ---

// ListSymptoms возвращает symptoms.
func (c *Client) ListSymptoms(opts ListOpts) ([]SymptomResponse, error) {
	params := url.Values{}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var symptoms []SymptomResponse
	err := c.list("/api/v1/symptoms", params, &symptoms)
	return symptoms, err
}

// CreateSymptom создаёт symptom.
func (c *Client) CreateSymptom(req CreateSymptomRequest) (*SymptomResponse, error) {
	var symptom SymptomResponse
	err := c.post("/api/v1/symptoms", req, &symptom)
	return &symptom, err
}

// DeleteSymptom удаляет symptom.
func (c *Client) DeleteSymptom(id string) error {
	return c.delete("/api/v1/symptoms/" + id)
}

// --- Diagnosis ---

// ListRuns возвращает diagnosis runs.
func (c *Client) ListRuns(limit int) ([]RunResponse, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	var runs []RunResponse
	err := c.list("/api/v1/diagnosis/runs", params, &runs)
	return runs, err
}

// CreateRun запускает новый diagnosis run.
func (c *Client) CreateRun() (*RunResponse, error) {
	var run RunResponse
	err := c.post("/api/v1/diagnosis/runs", nil, &run)
	return &run, err
}

// GetRun возвращает run по ID.
func (c *Client) GetRun(id string) (*RunResponse, error) {
	var run RunResponse
	err := c.get("/api/v1/diagnosis/runs/"+id, &run)
	return &run, err
}

// GetRunResults возвращает результаты run'а.
func (c *Client) GetRunResults(id string) (*RunResultsResponse, error) {
	var results RunResultsResponse
	err := c.get("/api/v1/diagnosis/runs/"+id+"/results", &results)
	return &results, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if lr.Data == nil || string(lr.Data) == "null" {
		return nil
	}
	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
