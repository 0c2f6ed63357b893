package domain

import (
	"time"

	"github.com/google/uuid"
)

// DataExport — выгрузка всех данных пользователя (GDPR).
//
// Выгрузка собирается синхронно при создании и хранится как JSON
// до ExpiresAt, после чего scheduler помечает её expired.
type DataExport struct {
	// ID — уникальный идентификатор выгрузки.
	ID uuid.UUID `json:"id"`

	// UserID — владелец данных.
	UserID uuid.UUID `json:"user_id"`

	// Status — pending, ready или expired.
	Status ExportStatus `json:"status"`

	// Payload — сериализованные данные пользователя.
	// Не отдаётся в списках, только при скачивании.
	Payload []byte `json:"-"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt — время, после которого выгрузка недоступна.
	ExpiresAt time.Time `json:"expires_at"`
}

// IsDownloadable возвращает true, если выгрузку ещё можно скачать.
func (e *DataExport) IsDownloadable(now time.Time) bool {
	return e.Status == ExportStatusReady && now.Before(e.ExpiresAt)
}
