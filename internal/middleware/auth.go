// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"questmeraki/internal/models"
	"questmeraki/internal/store"
	"questmeraki/internal/token"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// AccountKey is the context key for the authenticated account.
	AccountKey contextKey = "account"
)

// Authenticate resolves the Authorization bearer token to a live account
// and stores it in the request context. Requests without a token pass
// through unauthenticated; a token that is present but invalid, or whose
// account no longer exists, is rejected with 401 immediately — that is an
// authentication failure, distinct from the 403 authorization failures
// issued downstream.
func Authenticate(issuer *token.Issuer, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			accountID, err := issuer.Verify(raw)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			account, err := users.FindByID(accountID)
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if account == nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), AccountKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAccount rejects unauthenticated requests with 401.
// Must be applied after Authenticate in the middleware chain.
func RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if AccountFromCtx(r.Context()) == nil {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin returns 403 if the authenticated account is not an admin.
// Must be applied after RequireAccount.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := AccountFromCtx(r.Context())
		if account == nil {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !account.IsAdmin() {
			writeJSONError(w, http.StatusForbidden, "admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AccountFromCtx extracts the authenticated account from the request
// context. Returns nil if the request is unauthenticated.
func AccountFromCtx(ctx context.Context) *models.User {
	account, _ := ctx.Value(AccountKey).(*models.User)
	return account
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// writeJSONError writes a JSON error body matching the handlers' envelope.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
