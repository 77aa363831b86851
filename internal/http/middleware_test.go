package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AlxM1/aelo/internal/access"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AuthMock accepts requests carrying the "valid" admin cookie.
type AuthMock struct {
	session *access.Session
}

func (a AuthMock) Authenticate(r *http.Request) (*access.Session, error) {
	c, err := r.Cookie(access.SessionCookie)
	if err != nil || c.Value != "valid" {
		return nil, domain.ErrUnauthorized
	}
	return a.session, nil
}

func editorSession() *access.Session {
	return &access.Session{UserID: uuid.New(), Role: domain.RoleEditor, Name: "Edie", Email: "edie@drinkaelo.com"}
}

func signedIn(r *http.Request) *http.Request {
	r.AddCookie(&http.Cookie{Name: access.SessionCookie, Value: "valid"})
	return r
}

// sessionEcho records the session the gate put in the context.
func sessionEcho(got **access.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = access.SessionFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = getRequestID(r.Context())
	}))

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/", nil)
	request.Header.Set("X-Request-ID", "req-abc")
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, "req-abc", seen)
	assert.Equal(t, "req-abc", recorder.Header().Get("X-Request-ID"))

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/", nil))
	assert.True(t, strings.HasPrefix(seen, "req-"))
	assert.Equal(t, seen, recorder.Header().Get("X-Request-ID"))
}

func TestGate_AdminPagesRedirectsToLogin(t *testing.T) {
	gate := NewGate(AuthMock{session: editorSession()})
	var got *access.Session
	handler := gate.AdminPages(sessionEcho(&got))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/admin/orders?status=PAID", nil))

	assert.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, "/admin/login?next=%2Fadmin%2Forders%3Fstatus%3DPAID", recorder.Header().Get("Location"))
	assert.Nil(t, got)
}

func TestGate_AdminPagesWithSession(t *testing.T) {
	session := editorSession()
	gate := NewGate(AuthMock{session: session})
	var got *access.Session
	handler := gate.AdminPages(sessionEcho(&got))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, signedIn(httptest.NewRequest("GET", "/admin/orders", nil)))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, session, got)
}

func TestGate_AdminAPIRejectsWithJSON(t *testing.T) {
	gate := NewGate(AuthMock{session: editorSession()})
	var got *access.Session
	handler := gate.AdminAPI(sessionEcho(&got))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/admin/orders", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
	assert.Contains(t, recorder.Body.String(), `"code":"unauthorized"`)
	assert.Nil(t, got)
}

type failingAuth struct{}

func (failingAuth) Authenticate(*http.Request) (*access.Session, error) {
	return nil, errors.New("user store unreachable")
}

type nilSessionAuth struct{}

func (nilSessionAuth) Authenticate(*http.Request) (*access.Session, error) {
	return nil, nil
}

func TestGate_FailsClosed(t *testing.T) {
	for _, auth := range []Authenticator{failingAuth{}, nilSessionAuth{}} {
		gate := NewGate(auth)
		var got *access.Session

		recorder := httptest.NewRecorder()
		gate.AdminAPI(sessionEcho(&got)).ServeHTTP(recorder, signedIn(httptest.NewRequest("GET", "/api/admin/users", nil)))
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)

		recorder = httptest.NewRecorder()
		gate.AdminPages(sessionEcho(&got)).ServeHTTP(recorder, signedIn(httptest.NewRequest("GET", "/admin", nil)))
		assert.Equal(t, http.StatusFound, recorder.Code)
		assert.Nil(t, got)
	}
}

func TestGate_LoginPage(t *testing.T) {
	gate := NewGate(AuthMock{session: editorSession()})
	page := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("login form"))
	})

	tests := []struct {
		name     string
		url      string
		signedIn bool
		location string
	}{
		{"anonymous sees form", "/admin/login", false, ""},
		{"signed in goes to dashboard", "/admin/login", true, "/admin"},
		{"signed in follows next", "/admin/login?next=%2Fadmin%2Fproducts", true, "/admin/products"},
		{"offsite next ignored", "/admin/login?next=https%3A%2F%2Fevil.example", true, "/admin"},
		{"protocol relative next ignored", "/admin/login?next=%2F%2Fevil.example", true, "/admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest("GET", tt.url, nil)
			if tt.signedIn {
				request = signedIn(request)
			}
			recorder := httptest.NewRecorder()
			gate.LoginPage(page).ServeHTTP(recorder, request)

			if tt.location == "" {
				assert.Equal(t, http.StatusOK, recorder.Code)
				assert.Equal(t, "login form", recorder.Body.String())
				return
			}
			assert.Equal(t, http.StatusFound, recorder.Code)
			assert.Equal(t, tt.location, recorder.Header().Get("Location"))
		})
	}
}

func TestCartSessionID_ReplacesUnreadableCookie(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/cart", nil)
	request.AddCookie(&http.Cookie{Name: CartCookie, Value: "not-a-uuid"})

	id := cartSessionID(recorder, request)

	_, err := uuid.Parse(id)
	require.NoError(t, err)
	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, id, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestRespondDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.Invalid("price", "must be positive"), http.StatusBadRequest, "validation_failed"},
		{domain.ErrSelfDeletion, http.StatusBadRequest, "self_deletion"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{errors.Join(errors.New("order"), domain.ErrNotFound), http.StatusNotFound, "not_found"},
		{domain.ErrConflict, http.StatusConflict, "conflict"},
		{domain.ErrCheckoutUnavailable, http.StatusServiceUnavailable, "checkout_unavailable"},
		{context.DeadlineExceeded, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondDomainError(recorder, tt.err)
			assert.Equal(t, tt.status, recorder.Code)
			assert.Contains(t, recorder.Body.String(), `"code":"`+tt.code+`"`)
		})
	}
}
