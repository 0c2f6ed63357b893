package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SubjectType — тип сущности, к которой относится feedback.
type SubjectType string

const (
	SubjectMeal            SubjectType = "meal"
	SubjectSymptom         SubjectType = "symptom"
	SubjectDiagnosisResult SubjectType = "diagnosis_result"
)

// Valid проверяет, что тип известен.
func (s SubjectType) Valid() bool {
	switch s {
	case SubjectMeal, SubjectSymptom, SubjectDiagnosisResult:
		return true
	default:
		return false
	}
}

// Feedback — оценка пользователем записи или результата диагностики.
//
// На пару (subject_type, subject_id) у пользователя одна запись:
// повторная отправка обновляет рейтинг (upsert).
type Feedback struct {
	// ID — уникальный идентификатор feedback.
	ID uuid.UUID `json:"id"`

	// UserID — автор оценки.
	UserID uuid.UUID `json:"user_id"`

	// SubjectType — тип оцениваемой сущности.
	SubjectType SubjectType `json:"subject_type"`

	// SubjectID — идентификатор оцениваемой сущности.
	SubjectID uuid.UUID `json:"subject_id"`

	// Rating — оценка от 0 до 5.
	Rating int `json:"rating"`

	// Comment — комментарий в свободной форме.
	Comment string `json:"comment,omitempty"`

	// CreatedAt — время первой оценки.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate проверяет feedback перед сохранением.
func (f *Feedback) Validate() error {
	if !f.SubjectType.Valid() {
		return fmt.Errorf("unknown subject type %q", f.SubjectType)
	}
	if f.Rating < 0 || f.Rating > 5 {
		return fmt.Errorf("rating must be between 0 and 5, got %d", f.Rating)
	}
	return nil
}
