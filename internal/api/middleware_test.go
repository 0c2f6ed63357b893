package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
	"github.com/twm105/bloaty-mcbloatface-sub001/internal/repo"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSessions — SessionStore в памяти для тестов.
type fakeSessions map[string]*domain.Session

func (f fakeSessions) GetSession(_ context.Context, token string) (*domain.Session, error) {
	s, ok := f[token]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return s, nil
}

func TestChain_Order(t *testing.T) {
	var calls []string

	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(mk("first"), mk("second"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := []string{"first", "second", "handler"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestRecovery(t *testing.T) {
	handler := Recovery(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestRequestID(t *testing.T) {
	var fromCtx string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("generated when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		got := rec.Header().Get("X-Request-ID")
		if got == "" {
			t.Fatal("expected X-Request-ID header to be set")
		}
		if fromCtx != got {
			t.Errorf("context id = %q, header = %q", fromCtx, got)
		}
	})

	t.Run("incoming id preserved", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "upstream-42")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); got != "upstream-42" {
			t.Errorf("X-Request-ID = %q, want upstream-42", got)
		}
		if fromCtx != "upstream-42" {
			t.Errorf("context id = %q, want upstream-42", fromCtx)
		}
	})
}

func TestAuth(t *testing.T) {
	userID := uuid.New()
	store := fakeSessions{
		"good-token": {Token: "good-token", UserID: userID, ExpiresAt: time.Now().Add(time.Hour)},
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   uuid.UUID
	}{
		{
			name:       "no header uses mvp user",
			wantStatus: http.StatusOK,
			wantUser:   domain.MVPUserID,
		},
		{
			name:       "valid token resolves session owner",
			header:     "Bearer good-token",
			wantStatus: http.StatusOK,
			wantUser:   userID,
		},
		{
			name:       "unknown token rejected",
			header:     "Bearer bad-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header rejected",
			header:     "Basic abc",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser uuid.UUID
			handler := Auth(store, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = UserID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && gotUser != tt.wantUser {
				t.Errorf("user = %s, want %s", gotUser, tt.wantUser)
			}
		})
	}
}

func TestHandleRepoError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
	}{
		{"not found", repo.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"already exists", repo.ErrAlreadyExists, http.StatusConflict, ErrCodeConflict},
		{"invalid state", repo.ErrInvalidState, http.StatusUnprocessableEntity, ErrCodeInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if !HandleRepoError(rec, testLogger(), tt.err, "msg") {
				t.Fatal("HandleRepoError returned false for non-nil error")
			}

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal response: %v", err)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", resp.Error.Code, tt.wantCode)
			}
		})
	}

	if HandleRepoError(httptest.NewRecorder(), testLogger(), nil, "") {
		t.Error("HandleRepoError returned true for nil error")
	}
}
