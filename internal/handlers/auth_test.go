package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nexgig/db"
	"nexgig/internal/auth"
	"nexgig/internal/handlers"

	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func register(t *testing.T, h *handlers.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.RegisterHandler(w, req)
	return w
}

func login(t *testing.T, h *handlers.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.LoginHandler(w, req)
	return w
}

func TestRegister(t *testing.T) {
	store := newMockStorage()
	h := handlers.NewHandler(store, testSecret)

	w := register(t, h, `{"email":"ana@example.com","password":"Str0ng!pass","name":"Ana","role":"client"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ana@example.com")
	require.NotContains(t, w.Body.String(), "Str0ng!pass")

	// stored hash must verify, and must not be the raw password
	stored := store.usersByEmail[0]
	require.NotEqual(t, "Str0ng!pass", stored.PasswordHash)
	require.True(t, auth.CheckPassword(stored.PasswordHash, "Str0ng!pass"))
}

func TestRegisterWeakPassword(t *testing.T) {
	h := handlers.NewHandler(newMockStorage(), testSecret)

	for _, password := range []string{"short1!", "alllowercase1!", "ALLUPPER1!", "NoDigits!!", "NoSpecial11"} {
		w := register(t, h, `{"email":"a@b.c","password":"`+password+`"}`)
		require.Equal(t, http.StatusBadRequest, w.Code, "password %q should be rejected", password)
	}
}

func TestRegisterDuplicateEmailRole(t *testing.T) {
	store := newMockStorage()
	h := handlers.NewHandler(store, testSecret)

	require.Equal(t, http.StatusOK, register(t, h, `{"email":"dup@example.com","password":"Str0ng!pass","role":"client"}`).Code)

	// same email, same role: conflict
	w := register(t, h, `{"email":"dup@example.com","password":"Str0ng!pass","role":"client"}`)
	require.Equal(t, http.StatusConflict, w.Code)

	// same email, other role: allowed
	w = register(t, h, `{"email":"dup@example.com","password":"Str0ng!pass","role":"freelancer"}`)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLogin(t *testing.T) {
	store := newMockStorage()
	h := handlers.NewHandler(store, testSecret)
	require.Equal(t, http.StatusOK, register(t, h, `{"email":"bo@example.com","password":"Str0ng!pass","role":"freelancer"}`).Code)

	w := login(t, h, `{"email":"bo@example.com","password":"Str0ng!pass"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID   int    `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, db.RoleFreelancer, resp.User.Role)

	claims, err := auth.Parse(testSecret, resp.Token)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, claims.UserID)
	require.Equal(t, db.RoleFreelancer, claims.Role)
}

func TestLoginBadCredentials(t *testing.T) {
	store := newMockStorage()
	h := handlers.NewHandler(store, testSecret)
	require.Equal(t, http.StatusOK, register(t, h, `{"email":"bo@example.com","password":"Str0ng!pass"}`).Code)

	w := login(t, h, `{"email":"bo@example.com","password":"Wr0ng!pass!"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = login(t, h, `{"email":"nobody@example.com","password":"Str0ng!pass"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginDualRoleNeedsDisambiguation(t *testing.T) {
	store := newMockStorage()
	h := handlers.NewHandler(store, testSecret)
	require.Equal(t, http.StatusOK, register(t, h, `{"email":"both@example.com","password":"Str0ng!pass","role":"client"}`).Code)
	require.Equal(t, http.StatusOK, register(t, h, `{"email":"both@example.com","password":"Str0ng!pass","role":"freelancer"}`).Code)

	w := login(t, h, `{"email":"both@example.com","password":"Str0ng!pass"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "accounts")

	w = login(t, h, `{"email":"both@example.com","password":"Str0ng!pass","role":"client"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"role":"client"`)
}

func TestMe(t *testing.T) {
	store := newMockStorage()
	h := handlers.NewHandler(store, testSecret)
	require.Equal(t, http.StatusOK, register(t, h, `{"email":"me@example.com","password":"Str0ng!pass","role":"client"}`).Code)

	token, err := auth.Sign(testSecret, 1, "me@example.com", db.RoleClient)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.MeHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "me@example.com")

	// no token: user is null, not an error
	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w = httptest.NewRecorder()
	h.MeHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"user":null`)

	// garbage token: same
	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	w = httptest.NewRecorder()
	h.MeHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"user":null`)
}
