// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"questmeraki/internal/middleware"
	"questmeraki/internal/models"
	"questmeraki/internal/store"
	"questmeraki/internal/token"
)

// totpIssuer is the issuer name shown in authenticator apps.
const totpIssuer = "QuestMeraki"

// Auth groups the account and authentication handlers.
type Auth struct {
	users  *store.UserStore
	issuer *token.Issuer
}

// NewAuth creates a new Auth handler group.
func NewAuth(users *store.UserStore, issuer *token.Issuer) *Auth {
	return &Auth{users: users, issuer: issuer}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

// Register creates a reader account.
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	a.register(w, r, models.RoleReader)
}

// AdminRegister creates an admin account.
func (a *Auth) AdminRegister(w http.ResponseWriter, r *http.Request) {
	a.register(w, r, models.RoleAdmin)
}

func (a *Auth) register(w http.ResponseWriter, r *http.Request, role models.Role) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateCredentials(req.Email, req.Password, req.Name); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	user, err := a.users.Create(req.Email, req.Password, req.Name, role)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "an account with this email already exists")
			return
		}
		writeServerError(w, "account create failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

// Login authenticates a reader (or any account) by email and password
// and returns a bearer token.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.users.FindByEmail(req.Email)
	if err != nil {
		writeServerError(w, "login lookup failed", err)
		return
	}
	a.finishLogin(w, user, req)
}

// AdminLogin authenticates an admin account. The lookup is by email and
// role together, so a reader credential can never open the admin surface
// even with a valid password.
func (a *Auth) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.users.FindByEmailAndRole(req.Email, models.RoleAdmin)
	if err != nil {
		writeServerError(w, "admin login lookup failed", err)
		return
	}
	a.finishLogin(w, user, req)
}

// finishLogin validates credentials (and TOTP where enabled) and issues
// a token. A nil user falls through to the same invalid-credentials
// response as a wrong password, so the lookup result is not leaked.
func (a *Auth) finishLogin(w http.ResponseWriter, user *models.User, req loginRequest) {
	if user == nil || !a.users.CheckPassword(user, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if user.TOTPEnabled {
		if user.TOTPSecret == nil || !totp.Validate(req.TOTPCode, *user.TOTPSecret) {
			writeError(w, http.StatusUnauthorized, "invalid two-factor code")
			return
		}
	}

	raw, err := a.issuer.Issue(user.ID)
	if err != nil {
		writeServerError(w, "token issue failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": raw,
		"user":  user,
	})
}

// TwoFASetup generates a fresh TOTP secret for the authenticated admin
// and returns the otpauth QR code as a base64 PNG plus the raw secret
// for manual entry. The secret only takes effect after TwoFAEnable.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	account := middleware.AccountFromCtx(r.Context())

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: account.Email,
	})
	if err != nil {
		writeServerError(w, "totp generate failed", err)
		return
	}

	if err := a.users.SetTOTPSecret(account.ID, key.Secret()); err != nil {
		writeServerError(w, "save totp secret failed", err)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		writeServerError(w, "qr code generation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"qr_code": base64.StdEncoding.EncodeToString(qrPNG),
		"secret":  key.Secret(),
	})
}

// TwoFAEnable verifies a code against the pending secret and switches
// 2FA on for the authenticated admin.
func (a *Auth) TwoFAEnable(w http.ResponseWriter, r *http.Request) {
	account := middleware.AccountFromCtx(r.Context())

	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if account.TOTPSecret == nil {
		writeError(w, http.StatusBadRequest, "two-factor setup has not been started")
		return
	}
	if !totp.Validate(req.Code, *account.TOTPSecret) {
		writeError(w, http.StatusUnauthorized, "invalid two-factor code")
		return
	}

	if err := a.users.EnableTOTP(account.ID); err != nil {
		writeServerError(w, "enable totp failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "enabled"})
}

// UserRole returns the role of the account with the given ID.
func (a *Auth) UserRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := a.users.FindByID(id)
	if err != nil {
		writeServerError(w, "user lookup failed", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"role": string(user.Role)})
}
