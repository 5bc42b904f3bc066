package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/isdelr/routines-api/internal/auth"
	"github.com/isdelr/routines-api/internal/config"
	"github.com/isdelr/routines-api/internal/database"
	"github.com/isdelr/routines-api/internal/models"
	"github.com/isdelr/routines-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	t      *testing.T
	db     *sql.DB
	issuer *auth.TokenIssuer
	srv    *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.New(database.DriverSQLite, filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.DriverSQLite))

	issuer, err := auth.NewTokenIssuer("integration-secret", nil)
	require.NoError(t, err)

	cfg := &config.Config{AppEnv: "test", AllowedOrigins: []string{"http://localhost:3000"}}
	router := NewRouter(cfg, db, issuer,
		services.NewUserService(db, database.DriverSQLite, bcrypt.MinCost),
		services.NewRoutineService(db, database.DriverSQLite),
		services.NewEventService(db, database.DriverSQLite),
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{t: t, db: db, issuer: issuer, srv: srv}
}

func (s *testServer) do(method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var decoded interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	obj, _ := decoded.(map[string]interface{})
	if obj == nil {
		obj = map[string]interface{}{"_raw": decoded}
	}
	return resp, obj
}

func (s *testServer) register(username, password string) string {
	s.t.Helper()
	resp, body := s.do(http.MethodPost, "/api/users/register", "", map[string]string{"username": username, "password": password})
	require.Equal(s.t, http.StatusOK, resp.StatusCode, body)
	return body["token"].(string)
}

func (s *testServer) routines(username, token string) []string {
	s.t.Helper()
	resp, body := s.do(http.MethodGet, "/api/users/"+username+"/routines", token, nil)
	require.Equal(s.t, http.StatusOK, resp.StatusCode, body)
	list, ok := body["_raw"].([]interface{})
	require.True(s.t, ok, body)
	names := make([]string, 0, len(list))
	for _, item := range list {
		names = append(names, item.(map[string]interface{})["name"].(string))
	}
	return names
}

func TestRegisterLoginMe(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(http.MethodPost, "/api/users/register", "", map[string]string{"username": "alice", "password": "longenough1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "you're signed up!", body["message"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, user, "password")

	claims, err := s.issuer.Parse(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.WithinDuration(t, claims.IssuedAt.Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Second)

	resp, body = s.do(http.MethodPost, "/api/users/register", "", map[string]string{"username": "alice", "password": "longenough1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UserExistsError", body["name"])

	resp, body = s.do(http.MethodPost, "/api/users/register", "", map[string]string{"username": "bob", "password": "short1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "PasswordLengthError", body["name"])

	resp, body = s.do(http.MethodPost, "/api/users/login", "", map[string]string{"username": "alice", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "IncorrectCredentialsError", body["name"])

	resp, body = s.do(http.MethodPost, "/api/users/login", "", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MissingCredentialsError", body["name"])
	assert.NotContains(t, body, "token")

	resp, body = s.do(http.MethodPost, "/api/users/login", "", map[string]string{"username": "alice", "password": "longenough1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "you're logged in!", body["message"])
	token := body["token"].(string)

	resp, body = s.do(http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])
	assert.NotContains(t, body, "password")

	resp, body = s.do(http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MissingUserError", body["name"])

	resp, body = s.do(http.MethodGet, "/api/users/me/events", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events := body["_raw"].([]interface{})
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.(map[string]interface{})["type"].(string))
	}
	assert.ElementsMatch(t, []string{"user.register", "user.login"}, types)
}

func TestCredentialEdgeCases(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.srv.Client().Post(s.srv.URL+"/api/users/login", "application/json", strings.NewReader(""))
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MissingCredentialsError", body["name"])

	resp, body = s.do(http.MethodPost, "/api/users/register", "", map[string]string{"username": "alice", "password": strings.Repeat("x", 80)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "PasswordTooLongError", body["name"])

	s.register("alice", "longenough1")
	resp, body = s.do(http.MethodPost, "/api/users/login", "", map[string]string{"username": "alice", "password": strings.Repeat("x", 80)})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "IncorrectCredentialsError", body["name"])
}

func TestRoutinesVisibility(t *testing.T) {
	s := newTestServer(t)
	bobToken := s.register("bob", "longenough1")
	carolToken := s.register("carol", "longenough1")

	claims, err := s.issuer.Parse(bobToken)
	require.NoError(t, err)
	for _, r := range []models.Routine{
		{Name: "Bob Public", IsPublic: true, Goal: "strength"},
		{Name: "Bob Private", IsPublic: false, Goal: "secret"},
	} {
		_, err := s.db.Exec("INSERT INTO routines (creator_id, is_public, name, goal) VALUES (?, ?, ?, ?)",
			claims.ID, r.IsPublic, r.Name, r.Goal)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"Bob Public", "Bob Private"}, s.routines("bob", bobToken))
	assert.Equal(t, []string{"Bob Public"}, s.routines("bob", carolToken))
	assert.Equal(t, []string{"Bob Public"}, s.routines("bob", ""))
	assert.Equal(t, []string{}, s.routines("carol", carolToken))

	resp, body := s.do(http.MethodGet, "/api/users/nobody/routines", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NoUser", body["name"])
	assert.Equal(t, "Error looking up user nobody", body["message"])
}

func TestInvalidTokenIsAnonymous(t *testing.T) {
	s := newTestServer(t)
	s.register("bob", "longenough1")

	resp, _ := s.do(http.MethodGet, "/api/users/bob/routines", "garbage", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := s.do(http.MethodGet, "/api/users/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MissingUserError", body["name"])
}

func TestHealthAndNotFound(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["healthy"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	resp, body = s.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NotFoundError", body["name"])
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, s.srv.URL+"/api/users/login", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := s.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
