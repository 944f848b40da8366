package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"carpool/internal/auth"
	"carpool/internal/auth/repository"
	"carpool/internal/auth/service"
	"carpool/internal/auth/session"
	"carpool/internal/auth/token"
	"carpool/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const cookieName = "carpool_session"

func newServer(t *testing.T) http.Handler {
	t.Helper()
	log := logger.Discard()
	store := session.NewMemoryStore(time.Hour)
	t.Cleanup(store.Close)

	svc := service.NewAuthService(
		repository.NewMemoryUserRepository(),
		store,
		token.NewManager("0123456789abcdef0123456789abcdef", time.Hour),
		bcrypt.MinCost,
		log,
	)

	router := httprouter.New()
	NewAuthHandler(svc, CookieConfig{Name: cookieName}, log).RegisterRoutes(router)
	return auth.Authenticate(svc, cookieName, log)(router)
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestRegisterLoginLogout(t *testing.T) {
	srv := newServer(t)

	body := `{"name":"Ana","email":"ana@example.com","password":"correct-horse"}`
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	cookie := sessionCookie(t, w)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	var registered SessionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&registered))
	assert.NotContains(t, w.Body.String(), "password_hash")

	// Cookie transport.
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var me auth.Caller
	require.NoError(t, json.NewDecoder(w.Body).Decode(&me))
	assert.Equal(t, registered.User.ID, me.ID)

	// Bearer transport.
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"ana@example.com","password":"correct-horse"}`)))
	require.Equal(t, http.StatusOK, w.Code)
	var loggedIn SessionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&loggedIn))

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+loggedIn.Token)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Logout revokes only the session it was called with.
	req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, -1, sessionCookie(t, w).MaxAge)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+loggedIn.Token)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Logging out again with the revoked cookie still succeeds.
	req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuthErrors(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		bearer   string
		wantCode int
	}{
		{"me anonymous", http.MethodGet, "/auth/me", "", "", http.StatusUnauthorized},
		{"me garbage bearer", http.MethodGet, "/auth/me", "", "garbage", http.StatusUnauthorized},
		{"register malformed", http.MethodPost, "/auth/register", `{"name":`, "", http.StatusBadRequest},
		{"register invalid", http.MethodPost, "/auth/register", `{"name":"A","email":"x","password":"1"}`, "", http.StatusUnprocessableEntity},
		{"login unknown", http.MethodPost, "/auth/login", `{"email":"nobody@example.com","password":"whatever"}`, "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}
