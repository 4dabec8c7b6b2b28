package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"questmeraki/internal/models"
	"questmeraki/internal/token"
)

func authedRequest(account *models.User) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if account != nil {
		r = r.WithContext(context.WithValue(r.Context(), AccountKey, account))
	}
	return r
}

func TestAuthenticate_NoHeaderPassesThrough(t *testing.T) {
	issuer := token.NewIssuer("test-secret", time.Hour)

	var sawAccount *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAccount = AccountFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	// The user store is only consulted after a token verifies, so the
	// anonymous path is safe to exercise without a database.
	handler := Authenticate(issuer, nil)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if sawAccount != nil {
		t.Error("expected unauthenticated request to carry no account")
	}
}

func TestAuthenticate_InvalidTokenRejected(t *testing.T) {
	issuer := token.NewIssuer("test-secret", time.Hour)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run for an invalid token")
	})
	handler := Authenticate(issuer, nil)(next)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer not-a-token")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticate_WrongSecretRejected(t *testing.T) {
	issuer := token.NewIssuer("test-secret", time.Hour)
	other := token.NewIssuer("other-secret", time.Hour)

	raw, err := other.Issue(uuid.New())
	if err != nil {
		t.Fatal(err)
	}

	handler := Authenticate(issuer, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+raw)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAccount(t *testing.T) {
	handler := RequireAccount(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("anonymous rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("authenticated allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(&models.User{ID: uuid.New(), Role: models.RoleReader}))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name    string
		account *models.User
		want    int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"reader", &models.User{ID: uuid.New(), Role: models.RoleReader}, http.StatusForbidden},
		{"admin", &models.User{ID: uuid.New(), Role: models.RoleAdmin}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, authedRequest(tt.account))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", ""},
		{"bearer prefix", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"lowercase bearer", "bearer abc", "abc"},
		{"raw token accepted", "abc.def.ghi", "abc.def.ghi"},
		{"whitespace trimmed", "  Bearer   abc  ", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := bearerToken(r); got != tt.want {
				t.Errorf("bearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}
