package http

import (
	"context"
	"net/http"
	"time"

	"github.com/AlxM1/aelo/internal/access"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/AlxM1/aelo/internal/service"
)

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Me(ctx context.Context, session *access.Session) (*domain.User, error)
}

type AuthHandler struct {
	users        AuthAPI
	secureCookie bool
	timeout      time.Duration
}

func NewAuthHandler(users AuthAPI, secureCookie bool, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		users:        users,
		secureCookie: secureCookie,
		timeout:      timeout,
	}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     access.SessionCookie,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, res)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     access.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, err := h.users.Me(ctx, access.SessionFrom(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
