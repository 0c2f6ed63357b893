package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Symptom — запись о симптоме.
//
// Один симптом может описывать интервал (start/end) и принадлежать
// эпизоду — цепочке связанных записей (EpisodeID).
type Symptom struct {
	// ID — уникальный идентификатор симптома.
	ID uuid.UUID `json:"id"`

	// UserID — владелец записи.
	UserID uuid.UUID `json:"user_id"`

	// Description — описание симптома в свободной форме.
	Description string `json:"description"`

	// Tags — структурированные теги с тяжестью.
	Tags []SymptomTag `json:"tags,omitempty"`

	// StartTime — начало симптома (UTC).
	StartTime time.Time `json:"start_time"`

	// EndTime — конец симптома. Nil, если симптом продолжается.
	EndTime *time.Time `json:"end_time,omitempty"`

	// EpisodeID — эпизод, к которому относится симптом.
	// Nil для одиночных записей.
	EpisodeID *uuid.UUID `json:"episode_id,omitempty"`

	// ClarificationHistory — история уточняющих вопросов AI.
	ClarificationHistory []ClarificationTurn `json:"clarification_history,omitempty"`

	// CreatedAt — время создания записи.
	CreatedAt time.Time `json:"created_at"`
}

// MaxSeverity возвращает максимальную тяжесть среди тегов (0, если тегов нет).
func (s *Symptom) MaxSeverity() int {
	max := 0
	for _, t := range s.Tags {
		if t.Severity > max {
			max = t.Severity
		}
	}
	return max
}

// SymptomTag — тег симптома с тяжестью по шкале 1..10.
type SymptomTag struct {
	// Name — название симптома ("bloating", "headache").
	Name string `json:"name"`

	// Severity — тяжесть от 1 до 10.
	Severity int `json:"severity"`
}

// Validate проверяет тег.
func (t SymptomTag) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("tag name is required")
	}
	if t.Severity < 1 || t.Severity > 10 {
		return fmt.Errorf("tag %q: severity must be between 1 and 10, got %d", t.Name, t.Severity)
	}
	return nil
}

// ClarificationTurn — один раунд уточнения симптома.
type ClarificationTurn struct {
	// Question — вопрос, заданный моделью.
	Question string `json:"question"`

	// Answer — ответ пользователя. Пустой, если вопрос пропущен.
	Answer string `json:"answer,omitempty"`

	// Skipped — пользователь пропустил вопрос.
	Skipped bool `json:"skipped,omitempty"`
}

// MaxClarificationQuestions — лимит уточняющих вопросов на один симптом.
const MaxClarificationQuestions = 3
