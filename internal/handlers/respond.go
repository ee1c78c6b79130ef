package handlers

import (
	"KeyVault/internal/access"
	"KeyVault/internal/middleware"
	"KeyVault/internal/service"
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// base — общие зависимости хендлеров: журнал доступа и логгер.
type base struct {
	Audit  *service.AuditService
	Logger *zap.SugaredLogger
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// statusOf сопоставляет ошибку сервисного слоя со статусом HTTP.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrSelfDeletion):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail пишет ответ об ошибке. what — имя сущности для 404 ("Key", "User").
// Причина 5xx уходит только в журнал сервера.
func (b base) fail(w http.ResponseWriter, r *http.Request, op string, err error, what string) {
	status := statusOf(err)
	var msg string
	switch status {
	case http.StatusBadRequest:
		if errors.Is(err, service.ErrSelfDeletion) {
			msg = "Cannot delete your own account"
		} else {
			msg = capitalize(strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": "))
		}
	case http.StatusUnauthorized:
		msg = "Invalid credentials"
	case http.StatusForbidden:
		msg = "Admin access required"
	case http.StatusNotFound:
		msg = what + " not found"
	case http.StatusConflict:
		msg = capitalize(strings.TrimPrefix(err.Error(), service.ErrConflict.Error()+": "))
	default:
		msg = "Internal server error"
		if errors.Is(err, service.ErrCrypto) {
			msg = "Cryptographic operation failed"
		}
		b.Logger.Errorw(op+": service error",
			"request_id", chimw.GetReqID(r.Context()),
			"error", err,
		)
	}
	writeError(w, status, msg, "")
}

// record пишет событие журнала доступа от имени вызывающего.
func (b base) record(r *http.Request, ev service.AuditEvent) {
	b.Audit.Record(r.Context(), ev)
}

// identity — идентичность, положенная middleware.WithAuth.
func identity(r *http.Request) access.Identity {
	id, _ := middleware.GetIdentity(r.Context())
	return id
}

// clientOf — адрес соединения и User-Agent запроса. Заголовки прокси учитываются,
// только если включён WithProxyHeaders.
func clientOf(r *http.Request) service.Client {
	addr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	return service.Client{RemoteAddr: addr, UserAgent: r.UserAgent()}
}

// errNotObject — тело запроса не JSON-объект.
var errNotObject = errors.New("request body must be a JSON object")

// decodeObject читает тело как JSON-объект. Пустое тело, null, массив и мусор — ошибка.
func decodeObject(w http.ResponseWriter, r *http.Request, v any) error {
	var raw json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		return err
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
		return errNotObject
	}
	return json.Unmarshal(raw, v)
}

// pathParam — параметр маршрута. chi маршрутизирует по r.URL.RawPath, если он задан
// (путь содержит экранирование вроде %2F), и тогда параметр приходит экранированным;
// иначе значение уже декодировано и повторно не разбирается.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

const maxBodyBytes = 1 << 20

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
