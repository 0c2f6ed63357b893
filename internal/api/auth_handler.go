package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/repo"
)

const (
	sessionTTL = 30 * 24 * time.Hour
	inviteTTL  = 72 * time.Hour
)

// Login выдаёт сессионный токен по email и паролю.
// POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		BadRequest(w, "email and password are required")
		return
	}

	user, err := h.userRepo.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			Unauthorized(w, "invalid credentials")
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		Unauthorized(w, "invalid credentials")
		return
	}

	now := time.Now()
	session := &domain.Session{
		Token:     domain.NewToken(),
		UserID:    user.ID,
		ExpiresAt: now.Add(sessionTTL),
		CreatedAt: now,
	}

	if err := h.userRepo.CreateSession(r.Context(), session); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, SessionResponse{Token: session.Token, ExpiresAt: session.ExpiresAt})
}

// Logout удаляет текущую сессию.
// Идемпотентен: несуществующий токен — тоже успех.
// POST /api/v1/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		NoContent(w)
		return
	}

	if err := h.userRepo.DeleteSession(r.Context(), token); err != nil && !errors.Is(err, repo.ErrNotFound) {
		InternalError(w, h.logger, err)
		return
	}

	NoContent(w)
}

// AcceptInvite создаёт пользователя по приглашению.
// POST /api/v1/invites/accept
func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req AcceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.InviteToken == "" || req.Email == "" || req.Password == "" {
		BadRequest(w, "invite_token, email and password are required")
		return
	}
	if len(req.Password) < 8 {
		BadRequest(w, "password must be at least 8 characters")
		return
	}

	invite, err := h.userRepo.GetInvite(r.Context(), req.InviteToken)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			BadRequest(w, "invalid invite token")
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	now := time.Now()
	if !invite.IsUsable(now) {
		InvalidState(w, "invite is already used or expired")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	// AcceptInvite первым: конкурентная регистрация по одному токену
	// проигрывает на guard'е accepted_at IS NULL.
	if err := h.userRepo.AcceptInvite(r.Context(), invite.Token, now); err != nil {
		if errors.Is(err, repo.ErrInvalidState) {
			InvalidState(w, "invite is already used or expired")
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}

	if err := h.userRepo.Create(r.Context(), user); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			Conflict(w, "email is already registered")
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Created(w, user)
}

// CreateInvite создаёт приглашение нового пользователя. Только admin.
// POST /api/v1/invites
func (h *Handler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	caller, err := h.userRepo.GetByID(r.Context(), UserID(r.Context()))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			Forbidden(w, "admin access required")
			return
		}
		InternalError(w, h.logger, err)
		return
	}
	if !caller.IsAdmin {
		Forbidden(w, "admin access required")
		return
	}

	var req CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Email == "" {
		BadRequest(w, "email is required")
		return
	}

	invite := &domain.Invite{
		Token:     domain.NewToken(),
		Email:     req.Email,
		CreatedBy: caller.ID,
		ExpiresAt: time.Now().Add(inviteTTL),
	}

	if err := h.userRepo.CreateInvite(r.Context(), invite); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, invite)
}

// Me возвращает текущего пользователя.
// GET /api/v1/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userRepo.GetByID(r.Context(), UserID(r.Context()))
	if HandleRepoError(w, h.logger, err, "user not found") {
		return
	}

	Success(w, user)
}
