// Package testserver поднимает приложение целиком поверх in-memory базы
// для сквозных HTTP/WebSocket тестов.
package testserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"admin_console/internal/app"
	"admin_console/internal/config"
	"admin_console/internal/models"
	"admin_console/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type TestServer struct {
	Server *httptest.Server
	DB     *gorm.DB
	App    *app.Application
}

// NewTestConfig - конфиг для тестов: sqlite, локальное хранилище во временной папке
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.Database.Driver = "sqlite"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.TTL = 60
	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = t.TempDir()
	cfg.Upload = config.DefaultUploadPolicy()
	cfg.Realtime.LongPollTimeout = 2 * time.Second
	cfg.Realtime.SendBuffer = 16
	cfg.Realtime.WriteWait = time.Second
	cfg.Realtime.PongWait = 5 * time.Second
	return cfg
}

// New создает и настраивает тестовый сервер и БД. mutate может поправить конфиг.
func New(t *testing.T, mutate ...func(*config.Config)) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := NewTestConfig(t)
	for _, fn := range mutate {
		fn(cfg)
	}

	db := testutil.NewTestDB(t)
	application, err := app.New(cfg, db)
	require.NoError(t, err, "не удалось собрать приложение")

	server := httptest.NewServer(application.Router)
	ts := &TestServer{Server: server, DB: db, App: application}
	t.Cleanup(ts.Close)
	return ts
}

func (ts *TestServer) Close() {
	ts.App.WSManager.CloseAll()
	ts.Server.Close()
}

// WSURL - адрес сокет-эндпоинта для gorilla Dialer
func (ts *TestServer) WSURL() string {
	return "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/ws"
}

// SendRequest отправляет JSON-запрос и возвращает ответ с телом
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err, "ошибка кодирования JSON для запроса")
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ts.Do(t, req, token)
}

// Do выполняет готовый запрос с токеном
func (ts *TestServer) Do(t *testing.T, req *http.Request, token string) (*http.Response, string) {
	t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := ts.Server.Client().Do(req)
	require.NoError(t, err, "ошибка отправки HTTP-запроса")
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(resBody)
}

// Login логинит пользователя через API и возвращает access-токен
func (ts *TestServer) Login(t *testing.T, email, password string) string {
	t.Helper()

	res, body := ts.SendRequest(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, "логин должен быть успешным: %s", body)

	var loginResponse struct {
		Token string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &loginResponse))
	require.NotEmpty(t, loginResponse.Token)
	return loginResponse.Token
}

// CreateAndLoginAdmin создает админа отдела и возвращает его токен
func (ts *TestServer) CreateAndLoginAdmin(t *testing.T, email, department string) (string, *models.User) {
	t.Helper()
	user := testutil.CreateAdmin(t, ts.DB, email, department)
	return ts.Login(t, email, "password123"), user
}

// CreateAndLoginUser создает обычного пользователя и возвращает его токен
func (ts *TestServer) CreateAndLoginUser(t *testing.T, email, department string) (string, *models.User) {
	t.Helper()
	user := testutil.CreateUser(t, ts.DB, &models.User{Email: email, Department: department})
	return ts.Login(t, email, "password123"), user
}
