package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AlxM1/aelo/internal/access"
	"github.com/google/uuid"
)

const (
	CartCookie     = "aelo_cart"
	cartCookieLife = 30 * 24 * time.Hour

	loginPath = "/admin/login"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

type Authenticator interface {
	Authenticate(r *http.Request) (*access.Session, error)
}

// Gate resolves the admin session for protected routes. Any failure to
// resolve counts as no session.
type Gate struct {
	auth Authenticator
}

func NewGate(auth Authenticator) *Gate {
	return &Gate{auth: auth}
}

// AdminPages sends browsers without a session to the login page, keeping the
// requested path in ?next=.
func (g *Gate) AdminPages(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := g.auth.Authenticate(r)
		if err != nil || session == nil {
			target := loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(access.WithSession(r.Context(), session)))
	})
}

// AdminAPI rejects programmatic calls without a session with a 401 body.
func (g *Gate) AdminAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := g.auth.Authenticate(r)
		if err != nil || session == nil {
			respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(access.WithSession(r.Context(), session)))
	})
}

// LoginPage serves the login page, or redirects to the dashboard when the
// visitor is already signed in.
func (g *Gate) LoginPage(page http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session, err := g.auth.Authenticate(r); err == nil && session != nil {
			http.Redirect(w, r, safeNext(r.URL.Query().Get("next")), http.StatusFound)
			return
		}
		page.ServeHTTP(w, r)
	})
}

// safeNext only follows same-site admin paths.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/admin") && !strings.HasPrefix(next, loginPath) && !strings.HasPrefix(next, "//") {
		return next
	}
	return "/admin"
}

// cartSessionID returns the visitor's cart id, issuing a new cookie when the
// request has none or an unreadable one.
func cartSessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(CartCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     CartCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(cartCookieLife.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
