package access

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AlxM1/aelo/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	SessionCookie = "aelo_admin"
	tokenIssuer   = "aelo-admin"
)

// UserLookup resolves a token subject to the stored admin user.
type UserLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies admin session tokens. Verification re-reads
// the user so deactivated accounts and role changes apply immediately.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	users  UserLookup
	now    func() time.Time
}

func NewAuthenticator(secret string, ttl time.Duration, users UserLookup) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		ttl:    ttl,
		users:  users,
		now:    time.Now,
	}
}

func (a *Authenticator) TTL() time.Duration {
	return a.ttl
}

func (a *Authenticator) IssueToken(u *domain.User) (string, time.Time, error) {
	now := a.now()
	expires := now.Add(a.ttl)
	claims := tokenClaims{
		Role: u.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Authenticate resolves the request's credentials to a Session. Every failure
// is reported as ErrUnauthorized.
func (a *Authenticator) Authenticate(r *http.Request) (*Session, error) {
	raw := tokenFromRequest(r)
	if raw == "" {
		return nil, fmt.Errorf("%w: no credentials", domain.ErrUnauthorized)
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", domain.ErrUnauthorized)
	}

	u, err := a.users.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: user is deactivated", domain.ErrUnauthorized)
	}
	if !u.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role", domain.ErrUnauthorized)
	}

	return &Session{UserID: u.ID, Role: u.Role, Name: u.Name, Email: u.Email}, nil
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
