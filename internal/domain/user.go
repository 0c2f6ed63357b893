package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// MVPUserID — фиксированный пользователь single-user режима.
//
// Пока не выполнен вход по сессии, все запросы относятся к этому
// пользователю. Полноценная многопользовательская работа включается
// через invites + sessions.
var MVPUserID = uuid.MustParse("00000000-0000-0000-0000-000000000000")

// User — пользователь приложения.
type User struct {
	// ID — уникальный идентификатор пользователя.
	ID uuid.UUID `json:"id"`

	// Email — уникальный email.
	Email string `json:"email"`

	// DisplayName — отображаемое имя.
	DisplayName string `json:"display_name"`

	// PasswordHash — bcrypt-хэш пароля. Пустой для MVP-пользователя.
	PasswordHash string `json:"-"`

	// IsAdmin — флаг администратора (создание invites).
	IsAdmin bool `json:"is_admin"`

	// CreatedAt — время регистрации.
	CreatedAt time.Time `json:"created_at"`
}

// Session — сессия пользователя.
//
// Токен — 64-символьная hex-строка, передаётся как Bearer token.
type Session struct {
	// Token — токен сессии (primary key).
	Token string `json:"token"`

	// UserID — владелец сессии.
	UserID uuid.UUID `json:"user_id"`

	// ExpiresAt — время истечения. Истёкшая сессия эквивалентна отсутствующей.
	ExpiresAt time.Time `json:"expires_at"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired возвращает true, если сессия истекла.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Invite — приглашение нового пользователя.
type Invite struct {
	// Token — токен приглашения (primary key).
	Token string `json:"token"`

	// Email — email приглашённого.
	Email string `json:"email"`

	// CreatedBy — администратор, создавший приглашение.
	CreatedBy uuid.UUID `json:"created_by"`

	// AcceptedAt — время принятия. Nil, если приглашение не использовано.
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`

	// ExpiresAt — время истечения приглашения.
	ExpiresAt time.Time `json:"expires_at"`
}

// IsUsable возвращает true, если приглашение ещё можно принять.
func (i *Invite) IsUsable(now time.Time) bool {
	return i.AcceptedAt == nil && now.Before(i.ExpiresAt)
}

// UserSettings — настройки пользователя.
type UserSettings struct {
	// UserID — владелец настроек.
	UserID uuid.UUID `json:"user_id"`

	// DisclaimerAcceptedAt — время принятия медицинского дисклеймера.
	// Nil, если дисклеймер ещё не принят.
	DisclaimerAcceptedAt *time.Time `json:"disclaimer_accepted_at,omitempty"`

	// DataRetentionDays — срок хранения данных (GDPR).
	DataRetentionDays int `json:"data_retention_days"`

	// Timezone — таймзона пользователя по умолчанию (IANA).
	Timezone string `json:"timezone"`
}

// tokenBytes — длина токена в байтах (64 hex-символа).
const tokenBytes = 32

// NewToken генерирует криптографически случайный токен для сессий и invites.
func NewToken() string {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand на поддерживаемых платформах не возвращает ошибку
		panic(err)
	}
	return hex.EncodeToString(b)
}
