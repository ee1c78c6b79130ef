package handlers

import (
	"KeyVault/internal/auth"
	"KeyVault/internal/middleware"
	"KeyVault/internal/service"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

type options struct {
	proxyHeaders bool
}

// Option настраивает роутер.
type Option func(*options)

// WithProxyHeaders берёт адрес клиента из X-Forwarded-For / X-Real-IP.
// Включать только за доверенным обратным прокси: иначе клиент подделывает
// ip_address в журнале доступа.
func WithProxyHeaders() Option {
	return func(o *options) { o.proxyHeaders = true }
}

// NewHandler разводящий для хендлеров
func NewHandler(
	userService *service.UserService,
	secrets service.SecretStore,
	audit *service.AuditService,
	tokens *auth.TokenAuthority,
	logger *zap.SugaredLogger,
	opts ...Option,
) *Handler {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if o.proxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)

	base := base{Audit: audit, Logger: logger}

	// Handlers
	authHandler := NewAuthHandler(base, userService, tokens)
	keyHandler := NewKeyHandler(base, secrets)
	logHandler := NewLogHandler(base)
	userHandler := NewUserHandler(base, userService, secrets)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	})

	r.Get("/health", Health)
	r.Post("/auth/login", authHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.WithAuth(tokens))

		r.Post("/auth/logout", authHandler.Logout)

		// Secret routes
		r.Get("/keys", keyHandler.List)
		r.Post("/keys", keyHandler.Create)
		r.Get("/keys/{name}", keyHandler.Get)
		r.Put("/keys/{name}", keyHandler.Update)
		r.Delete("/keys/{name}", keyHandler.Delete)

		r.Get("/logs", logHandler.List)

		// Admin routes; роль проверяет сервисный слой
		r.Get("/users", userHandler.List)
		r.Post("/users", userHandler.Create)
		r.Put("/users/{id}", userHandler.Update)
		r.Delete("/users/{id}", userHandler.Delete)
	})

	return &Handler{Router: r}
}
