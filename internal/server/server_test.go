package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/student-life-be/internal/config"
	"github.com/hongminglow/student-life-be/internal/events"
	"github.com/hongminglow/student-life-be/internal/storage/memory"
)

type envelope struct {
	Status        string          `json:"status"`
	Message       *string         `json:"message"`
	Data          json.RawMessage `json:"data"`
	Page          *int            `json:"page"`
	Size          *int            `json:"size"`
	TotalPages    *int            `json:"totalPages"`
	TotalElements int64           `json:"totalElements"`
}

func testConfig() config.Config {
	return config.Config{
		Port:          "0",
		StorageDriver: config.DriverMemory,
		JWTSecret:     "0123456789abcdef0123456789abcdef",
		JWTIssuer:     "test",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		CORSOrigins:   []string{"*"},
	}
}

func newTestServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := httptest.NewServer(NewRouter(cfg, memory.NewStore(), events.Discard{}, logger))
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func login(t *testing.T, ts *httptest.Server, user, password string) (access, refresh string) {
	t.Helper()
	status, env := call(t, ts, http.MethodPost, "/api/users/login", "", map[string]string{"userName": user, "password": password})
	require.Equal(t, http.StatusOK, status)
	var out struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out.AccessToken, out.RefreshToken
}

func register(t *testing.T, ts *httptest.Server, user, password string) {
	t.Helper()
	status, _ := call(t, ts, http.MethodPost, "/api/users/register", "", map[string]any{
		"userName": user, "email": user + "@example.com", "password": password, "rePassword": password,
	})
	require.Equal(t, http.StatusCreated, status)
}

func TestAuthScenario(t *testing.T) {
	ts := newTestServer(t, testConfig())

	status, env := call(t, ts, http.MethodPost, "/api/users/register", "", map[string]any{
		"userName": "alice", "email": "alice@example.com", "password": "pw1", "rePassword": "pw1", "university": "HUST",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "201", env.Status)
	assert.NotContains(t, string(env.Data), "password")

	status, env = call(t, ts, http.MethodPost, "/api/users/register", "", map[string]any{
		"userName": "alice", "email": "alice@example.com", "password": "pw1", "rePassword": "pw1",
	})
	assert.Equal(t, http.StatusConflict, status)
	require.NotNil(t, env.Message)
	assert.Equal(t, "username already exists", *env.Message)

	status, _ = call(t, ts, http.MethodPost, "/api/users/register", "", map[string]any{
		"userName": "bob", "email": "bob@example.com", "password": "pw1", "rePassword": "pw2",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = call(t, ts, http.MethodPost, "/api/users/login", "", map[string]string{"userName": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "401", env.Status)

	access, refresh := login(t, ts, "alice", "pw1")
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	status, env = call(t, ts, http.MethodGet, "/api/users/me", access, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"userName":"alice"`)

	status, _ = call(t, ts, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, ts, http.MethodGet, "/api/users/me", refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, status, "refresh tokens do not open protected routes")

	status, env = call(t, ts, http.MethodPost, "/api/users/refresh", "", map[string]string{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "accessToken")

	status, _ = call(t, ts, http.MethodPost, "/api/users/refresh", "", map[string]string{"refreshToken": refresh})
	assert.Equal(t, http.StatusUnauthorized, status, "rotated refresh token is revoked")
}

func TestExpenseSearchOverHTTP(t *testing.T) {
	ts := newTestServer(t, testConfig())
	register(t, ts, "alice", "pw1")
	access, _ := login(t, ts, "alice", "pw1")

	status, env := call(t, ts, http.MethodPost, "/api/expenses/add", access, map[string]any{
		"amount": 12.50, "category": "FOOD", "description": "lunch", "expenseDate": "2025-03-10T12:00:00Z",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Contains(t, string(env.Data), `"amount":12.50`)

	status, env = call(t, ts, http.MethodPost, "/api/expenses/search", access, map[string]any{
		"pageIndex": 0, "pageSize": 10, "minAmount": 10,
	})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, env.TotalElements)
	require.NotNil(t, env.TotalPages)
	assert.Equal(t, 1, *env.TotalPages)
	require.NotNil(t, env.Page)
	assert.Equal(t, 0, *env.Page)

	status, env = call(t, ts, http.MethodPost, "/api/expenses/search", access, map[string]any{
		"pageIndex": 0, "pageSize": 10, "minAmount": 20,
	})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, env.TotalElements)
	assert.JSONEq(t, `[]`, string(env.Data))

	status, _ = call(t, ts, http.MethodPost, "/api/expenses/search", access, map[string]any{"pageIndex": 0, "pageSize": 0})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = call(t, ts, http.MethodGet, "/api/expenses/summary?year=2025&month=3", access, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"total":12.50`)
}

func TestCourseOwnershipOverHTTP(t *testing.T) {
	ts := newTestServer(t, testConfig())
	register(t, ts, "alice", "pw1")
	register(t, ts, "bob", "pw2")
	alice, _ := login(t, ts, "alice", "pw1")
	bob, _ := login(t, ts, "bob", "pw2")

	status, env := call(t, ts, http.MethodPost, "/api/courses/add", alice, map[string]any{"nameCourse": "Algorithms", "room": "A-101"})
	require.Equal(t, http.StatusCreated, status)
	var course struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &course))

	status, _ = call(t, ts, http.MethodPut, "/api/courses/update/"+course.ID, bob, map[string]any{"room": "Z"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, ts, http.MethodDelete, "/api/courses/delete/"+course.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, ts, http.MethodPut, "/api/courses/update/does-not-exist", alice, map[string]any{"room": "Z"})
	assert.Equal(t, http.StatusNotFound, status)

	status, env = call(t, ts, http.MethodPost, "/api/tasks/add", alice, map[string]any{"title": "Homework 1", "courseId": course.ID})
	require.Equal(t, http.StatusCreated, status)
	assert.Contains(t, string(env.Data), `"status":"TODO"`)

	status, env = call(t, ts, http.MethodGet, "/api/courses/my-courses", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), course.ID)

	status, env = call(t, ts, http.MethodDelete, "/api/courses/delete/"+course.ID, alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), course.ID)

	status, env = call(t, ts, http.MethodPost, "/api/tasks/search", alice, map[string]any{"pageIndex": 0, "pageSize": 5})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, env.TotalElements, "tasks are deleted with their course")
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t, testConfig())
	register(t, ts, "alice", "pw1")
	register(t, ts, "bob", "pw2")
	alice, _ := login(t, ts, "alice", "pw1")
	bob, _ := login(t, ts, "bob", "pw2")

	_, env := call(t, ts, http.MethodPost, "/api/courses/add", alice, map[string]any{"nameCourse": "Databases"})
	var course struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &course))

	status, _ := call(t, ts, http.MethodPost, "/api/tasks/add", alice, map[string]any{"title": "Lab", "courseId": course.ID, "status": "SOMEDAY"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, ts, http.MethodPost, "/api/tasks/add", bob, map[string]any{"title": "Lab", "courseId": course.ID})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = call(t, ts, http.MethodPost, "/api/tasks/add", alice, map[string]any{
		"title": "Lab 2", "courseId": course.ID, "priority": "HIGH", "deadline": "2025-04-01T09:00:00Z",
	})
	require.Equal(t, http.StatusCreated, status)
	var task struct {
		ID       string `json:"id"`
		Priority string `json:"priority"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &task))
	assert.Equal(t, "HIGH", task.Priority)

	status, env = call(t, ts, http.MethodPut, "/api/tasks/update/"+task.ID, alice, map[string]any{"status": "DONE"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"status":"DONE"`)
	assert.Contains(t, string(env.Data), `"title":"Lab 2"`)

	status, env = call(t, ts, http.MethodPost, "/api/tasks/search", alice, map[string]any{"pageIndex": 0, "pageSize": 10, "status": "DONE"})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, env.TotalElements)

	status, env = call(t, ts, http.MethodPost, "/api/tasks/search", bob, map[string]any{"pageIndex": 0, "pageSize": 10})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, env.TotalElements, "search is scoped to the caller")

	status, _ = call(t, ts, http.MethodDelete, "/api/tasks/delete/"+task.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = call(t, ts, http.MethodDelete, "/api/tasks/delete/"+task.ID, alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `"Deleted task with id: `+task.ID+`"`, string(env.Data))
}

func TestMalformedJSONAndUnknownRoute(t *testing.T) {
	ts := newTestServer(t, testConfig())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/users/login", bytes.NewBufferString("{"))
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	status, env := call(t, ts, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "404", env.Status)

	status, _ = call(t, ts, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestChatMountedOnlyWhenConfigured(t *testing.T) {
	ts := newTestServer(t, testConfig())
	register(t, ts, "alice", "pw1")
	access, _ := login(t, ts, "alice", "pw1")

	status, _ := call(t, ts, http.MethodPost, "/api/chat", access, map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusNotFound, status)

	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"Take breaks."}`))
	}))
	defer ollama.Close()

	cfg := testConfig()
	cfg.OllamaURL = ollama.URL
	cfg.OllamaModel = "gemma2:2b"
	chatServer := newTestServer(t, cfg)
	register(t, chatServer, "alice", "pw1")
	access, _ = login(t, chatServer, "alice", "pw1")

	status, _ = call(t, chatServer, http.MethodPost, "/api/chat", "", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := call(t, chatServer, http.MethodPost, "/api/chat", access, map[string]string{"message": "How do I focus?"})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"reply":"Take breaks."}`, string(env.Data))
}
