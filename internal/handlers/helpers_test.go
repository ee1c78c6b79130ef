package handlers_test

import (
	"KeyVault/internal/auth"
	"KeyVault/internal/crypto"
	"KeyVault/internal/handlers"
	"KeyVault/internal/model"
	"KeyVault/internal/repo"
	"KeyVault/internal/service"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	adminName = "admin"
	adminPass = "admin-pass"
)

type testServer struct {
	router  http.Handler
	db      *gorm.DB
	tokens  *auth.TokenAuthority
	secrets service.SecretStore
}

type serverOpts struct {
	cacheSize    int
	proxyHeaders bool
}

func newTestServer(t *testing.T, opts ...serverOpts) *testServer {
	t.Helper()
	var o serverOpts
	if len(opts) > 0 {
		o = opts[0]
	}

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repo.InitDB(fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	logger := zap.NewNop().Sugar()
	hasher := crypto.NewPasswordHasher(crypto.ArgonParams{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32})
	cipher, err := crypto.NewEnvelopeCipher("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	tokens, err := auth.NewTokenAuthority("test-secret", time.Hour)
	require.NoError(t, err)

	users := service.NewUserService(repo.NewUserRepository(db), hasher)
	var secrets service.SecretStore = service.NewSecretService(repo.NewSecretRepository(db), cipher)
	if o.cacheSize > 0 {
		secrets = service.NewCachedSecretStore(secrets, o.cacheSize, time.Minute)
	}
	audit := service.NewAuditService(repo.NewAuditRepository(db), logger)

	require.NoError(t, users.EnsureAdmin(context.Background(), adminName, adminPass, logger))

	var hopts []handlers.Option
	if o.proxyHeaders {
		hopts = append(hopts, handlers.WithProxyHeaders())
	}
	h := handlers.NewHandler(users, secrets, audit, tokens, logger, hopts...)
	return &testServer{router: h.Router, db: db, tokens: tokens, secrets: secrets}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "handlers-test")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (s *testServer) adminToken(t *testing.T) string {
	return s.login(t, adminName, adminPass)
}

// createUser заводит пользователя от имени администратора и возвращает его токен.
func (s *testServer) createUser(t *testing.T, adminTok, username, password, role string) string {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/users", adminTok, map[string]string{
		"username": username, "password": password, "role": role,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return s.login(t, username, password)
}

func (s *testServer) userID(t *testing.T, username string) int64 {
	t.Helper()
	var u model.User
	require.NoError(t, s.db.Where("username = ?", username).First(&u).Error)
	return u.ID
}

func (s *testServer) auditEntries(t *testing.T, action string) []model.AuditEntry {
	t.Helper()
	var out []model.AuditEntry
	require.NoError(t, s.db.Where("action = ?", action).Order("timestamp ASC").Order("id ASC").Find(&out).Error)
	return out
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

type keyBody struct {
	KeyName     string `json:"key_name"`
	APIKey      string `json:"api_key"`
	Description string `json:"description"`
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
