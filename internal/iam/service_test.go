package iam

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YeyeJames/jiale15/internal/store"
	"github.com/YeyeJames/jiale15/pkg/api"
	"github.com/YeyeJames/jiale15/pkg/config"
	"github.com/YeyeJames/jiale15/pkg/logger"
	"github.com/YeyeJames/jiale15/pkg/monitoring"
	"github.com/YeyeJames/jiale15/pkg/types"
)

func setupTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	log := logger.Discard()
	st, err := store.Open(context.Background(), store.NewMemoryPersistence(), store.DefaultSeed(), log)
	require.NoError(t, err)

	cfg := config.AuthConfig{JWTSecret: "test-secret", TokenTTL: 3600, Issuer: "jiale-clinic"}
	return NewService(st, cfg, log, monitoring.NewMetricsCollector("test")), st
}

func findAccount(st *store.Store, username string) types.Account {
	for _, a := range st.Accounts() {
		if a.Username == username {
			return a
		}
	}
	return types.Account{}
}

func TestAuthenticate_UpgradesPlainPassword(t *testing.T) {
	service, st := setupTestService(t)
	ctx := context.Background()

	require.False(t, IsHashed(findAccount(st, "jiale").Password))

	account, err := service.Authenticate(ctx, "jiale", "jiale")
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, account.Role)

	stored := findAccount(st, "jiale").Password
	assert.True(t, IsHashed(stored))

	_, err = service.Authenticate(ctx, "jiale", "jiale")
	assert.NoError(t, err)
	assert.Equal(t, stored, findAccount(st, "jiale").Password)
}

func TestAuthenticate_Failures(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	_, err := service.Authenticate(ctx, "jiale", "wrong")
	assert.True(t, types.IsType(err, types.ErrorTypeAuthentication))

	_, err = service.Authenticate(ctx, "nobody", "jiale")
	assert.True(t, types.IsType(err, types.ErrorTypeAuthentication))
}

func TestLogin_IssuesToken(t *testing.T) {
	service, _ := setupTestService(t)

	token, err := service.Login(context.Background(), &types.Credentials{Username: "staff", Password: "staff"})
	require.NoError(t, err)

	claims, err := service.Tokens().Validate(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, types.RoleStaff, claims.Role)
	assert.Equal(t, "staff", claims.Username)
}

func TestAddAccount(t *testing.T) {
	service, st := setupTestService(t)
	ctx := context.Background()

	view, err := service.AddAccount(ctx, &types.AccountInput{Username: "nurse", Password: "pw", Name: "Nurse Ho", Role: types.RoleStaff})
	require.NoError(t, err)
	assert.NotEmpty(t, view.ID)
	assert.True(t, IsHashed(findAccount(st, "nurse").Password))

	_, err = service.Authenticate(ctx, "nurse", "pw")
	assert.NoError(t, err)

	_, err = service.AddAccount(ctx, &types.AccountInput{Username: "nurse", Password: "pw", Name: "Again", Role: types.RoleStaff})
	assert.True(t, types.IsType(err, types.ErrorTypeConflict))

	_, err = service.AddAccount(ctx, &types.AccountInput{Username: "x", Password: "pw", Name: "X", Role: "owner"})
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))

	_, err = service.AddAccount(ctx, &types.AccountInput{Username: "", Password: "pw", Name: "X", Role: types.RoleStaff})
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))

	for _, v := range service.ListAccounts() {
		assert.NotEqual(t, "Again", v.Name)
	}
}

func TestRemoveAccount(t *testing.T) {
	service, st := setupTestService(t)
	ctx := context.Background()

	err := service.RemoveAccount(ctx, "missing")
	assert.True(t, types.IsType(err, types.ErrorTypeNotFound))

	err = service.RemoveAccount(ctx, "u1")
	assert.True(t, types.IsType(err, types.ErrorTypeConflict), "last admin stays")

	require.NoError(t, service.RemoveAccount(ctx, "u2"))
	assert.Len(t, st.Accounts(), 1)
}

func TestMiddleware(t *testing.T) {
	service, _ := setupTestService(t)
	log := logger.Discard()

	adminToken, err := service.Login(context.Background(), &types.Credentials{Username: "jiale", Password: "jiale"})
	require.NoError(t, err)
	staffToken, err := service.Login(context.Background(), &types.Credentials{Username: "staff", Password: "staff"})
	require.NoError(t, err)

	router := mux.NewRouter()
	router.Use(AuthMiddleware(service.Tokens(), log))
	router.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
		claims, _ := api.ClaimsFrom(r.Context())
		_, _ = w.Write([]byte(claims.Username))
	})
	router.Handle("/admin", RequireRole(log, types.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	call := func(path, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, call("/whoami", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call("/whoami", "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, call("/whoami", "Bearer abc").Code)

	rec := call("/whoami", "Bearer "+staffToken.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "staff", rec.Body.String())

	assert.Equal(t, http.StatusForbidden, call("/admin", "Bearer "+staffToken.AccessToken).Code)
	assert.Equal(t, http.StatusNoContent, call("/admin", "Bearer "+adminToken.AccessToken).Code)
}

func TestHandlers(t *testing.T) {
	service, _ := setupTestService(t)
	router := mux.NewRouter()
	service.RegisterLoginRoute(router)
	service.RegisterRoutes(router, func(next http.Handler) http.Handler { return next })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"jiale","password":"jiale"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var token types.AuthToken
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&token))
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, types.RoleAdmin, token.User.Role)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"jiale","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/accounts",
		strings.NewReader(`{"username":"nurse","password":"pw","name":"Nurse Ho","role":"staff"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var view types.AccountView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/accounts/"+view.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLogin_Throttled(t *testing.T) {
	log := logger.Discard()
	st, err := store.Open(context.Background(), store.NewMemoryPersistence(), store.DefaultSeed(), log)
	require.NoError(t, err)
	cfg := config.AuthConfig{JWTSecret: "test-secret", TokenTTL: 3600, Issuer: "jiale-clinic", MaxLoginAttempts: 2, LoginWindow: 600}
	service := NewService(st, cfg, log, nil)
	ctx := context.Background()

	_, err = service.Login(ctx, &types.Credentials{Username: "staff", Password: "bad"})
	assert.True(t, types.IsType(err, types.ErrorTypeAuthentication))
	_, err = service.Login(ctx, &types.Credentials{Username: "staff", Password: "staff"})
	require.NoError(t, err, "success refills the bucket")

	_, _ = service.Login(ctx, &types.Credentials{Username: "staff", Password: "bad"})
	_, _ = service.Login(ctx, &types.Credentials{Username: "staff", Password: "bad"})
	_, err = service.Login(ctx, &types.Credentials{Username: "Staff", Password: "staff"})
	assert.True(t, types.IsType(err, types.ErrorTypeRateLimited))

	_, err = service.Login(ctx, &types.Credentials{Username: "jiale", Password: "jiale"})
	assert.NoError(t, err)
}
