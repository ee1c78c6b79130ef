package commands

import (
	"KeyVault/internal/config"
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// fakeAPI — минимальный сервер KeyVault: bob/secret1 получает токен tok-bob.
type fakeAPI struct {
	*httptest.Server
	keyHits atomic.Int32
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		write := func(code int, body string) {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(body))
		}
		switch r.URL.Path {
		case "/health":
			write(http.StatusOK, `{"status":"healthy"}`)
			return
		case "/auth/login":
			var buf bytes.Buffer
			_, _ = buf.ReadFrom(r.Body)
			if !strings.Contains(buf.String(), `"password":"secret1"`) {
				write(http.StatusUnauthorized, `{"error":"Invalid credentials"}`)
				return
			}
			write(http.StatusOK, `{"token":"tok-bob","user":"bob","role":"user","expires_at":"2030-01-01T00:00:00Z"}`)
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok-bob" {
			write(http.StatusUnauthorized, `{"error":"Invalid or expired token","details":"invalid token"}`)
			return
		}
		switch r.URL.Path {
		case "/auth/logout":
			write(http.StatusOK, `{"message":"Logged out successfully"}`)
		case "/keys":
			write(http.StatusOK, `{"keys":[{"key_name":"db_pw","description":"prod","created_by":"bob","created_at":"2026-01-02T03:04:05Z"}]}`)
		case "/keys/db_pw":
			f.keyHits.Add(1)
			write(http.StatusOK, `{"key_name":"db_pw","api_key":"s3cr3t"}`)
		case "/keys/smtp":
			f.keyHits.Add(1)
			write(http.StatusOK, `{"key_name":"smtp","api_key":"mail-pw"}`)
		default:
			write(http.StatusNotFound, `{"error":"Key not found"}`)
		}
	}))
	t.Cleanup(f.Close)
	return f
}

// testConfig направляет CLI на fake-сервер и временный файл токена.
func testConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	return &config.Config{
		ServerURL: serverURL,
		TokenFile: filepath.Join(t.TempDir(), "token"),
		CacheSize: 8,
		CacheTTL:  time.Minute,
	}
}

// captureOut перенаправляет Out в буфер на время теста.
func captureOut(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Out
	Out = &buf
	t.Cleanup(func() { Out = prev })
	return &buf
}
