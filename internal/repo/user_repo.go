package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
)

// UserRepo — репозиторий для пользователей, сессий, invites и настроек.
type UserRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepo создаёт новый UserRepo.
func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Create создаёт нового пользователя.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, display_name, password_hash, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO NOTHING
	`
	result, err := r.pool.Exec(ctx, query,
		u.ID,
		u.Email,
		u.DisplayName,
		nullString(u.PasswordHash),
		u.IsAdmin,
		u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// GetByID возвращает пользователя по ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, email, display_name, password_hash, is_admin, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, display_name, password_hash, is_admin, created_at
		FROM users
		WHERE email = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// --- Sessions ---

// CreateSession создаёт сессию.
func (r *UserRepo) CreateSession(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query, s.Token, s.UserID, s.ExpiresAt, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession возвращает живую сессию по токену.
// Истёкшая сессия эквивалентна отсутствующей.
func (r *UserRepo) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	query := `
		SELECT token, user_id, expires_at, created_at
		FROM sessions
		WHERE token = $1 AND expires_at > now()
	`
	var s domain.Session
	err := r.pool.QueryRow(ctx, query, token).Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &s, nil
}

// DeleteSession удаляет сессию (logout).
func (r *UserRepo) DeleteSession(ctx context.Context, token string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Invites ---

// CreateInvite создаёт приглашение.
func (r *UserRepo) CreateInvite(ctx context.Context, inv *domain.Invite) error {
	query := `
		INSERT INTO invites (token, email, created_by, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query, inv.Token, inv.Email, inv.CreatedBy, inv.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert invite: %w", err)
	}
	return nil
}

// GetInvite возвращает приглашение по токену.
func (r *UserRepo) GetInvite(ctx context.Context, token string) (*domain.Invite, error) {
	query := `
		SELECT token, email, created_by, accepted_at, expires_at
		FROM invites
		WHERE token = $1
	`
	var inv domain.Invite
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&inv.Token, &inv.Email, &inv.CreatedBy, &inv.AcceptedAt, &inv.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan invite: %w", err)
	}
	return &inv, nil
}

// AcceptInvite помечает приглашение принятым.
// Возвращает ErrInvalidState, если приглашение уже использовано или истекло.
func (r *UserRepo) AcceptInvite(ctx context.Context, token string, at time.Time) error {
	query := `
		UPDATE invites
		SET accepted_at = $2
		WHERE token = $1 AND accepted_at IS NULL AND expires_at > $2
	`
	result, err := r.pool.Exec(ctx, query, token, at)
	if err != nil {
		return fmt.Errorf("accept invite: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Либо токен не существует, либо приглашение уже неактуально
		if _, getErr := r.GetInvite(ctx, token); getErr != nil {
			return getErr
		}
		return ErrInvalidState
	}
	return nil
}

// --- Settings ---

// GetSettings возвращает настройки пользователя, создавая дефолтные при первом обращении.
func (r *UserRepo) GetSettings(ctx context.Context, userID uuid.UUID) (*domain.UserSettings, error) {
	query := `
		INSERT INTO user_settings (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, disclaimer_accepted_at, data_retention_days, timezone
	`
	var s domain.UserSettings
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&s.UserID, &s.DisclaimerAcceptedAt, &s.DataRetentionDays, &s.Timezone,
	)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &s, nil
}

// UpdateSettings обновляет настройки пользователя.
func (r *UserRepo) UpdateSettings(ctx context.Context, s *domain.UserSettings) error {
	query := `
		INSERT INTO user_settings (user_id, disclaimer_accepted_at, data_retention_days, timezone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET disclaimer_accepted_at = EXCLUDED.disclaimer_accepted_at,
		    data_retention_days = EXCLUDED.data_retention_days,
		    timezone = EXCLUDED.timezone
	`
	_, err := r.pool.Exec(ctx, query,
		s.UserID, s.DisclaimerAcceptedAt, s.DataRetentionDays, s.Timezone,
	)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

// --- Helpers ---

func (r *UserRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var passwordHash *string

	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &passwordHash, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	return &u, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullUUID возвращает nil для пустого UUID.
func nullUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}
