package handlers

import (
	"KeyVault/internal/access"
	"KeyVault/internal/auth"
	"KeyVault/internal/service"
	"errors"
	"net/http"
	"time"
)

// AuthHandler — вход и выход.
type AuthHandler struct {
	base
	Users  *service.UserService
	Tokens *auth.TokenAuthority
}

func NewAuthHandler(b base, users *service.UserService, tokens *auth.TokenAuthority) *AuthHandler {
	return &AuthHandler{base: b, Users: users, Tokens: tokens}
}

type loginRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	User      string    `json:"user"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login проверяет учётные данные и выдаёт токен сессии.
// Каждая попытка, удачная или нет, попадает в журнал доступа.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	client := clientOf(r)

	var req loginRequest
	if err := decodeObject(w, r, &req); err != nil || req.Username == nil || req.Password == nil {
		ev := service.EventFor(access.Identity{}, service.ActionLoginAttempt, client)
		if req.Username != nil {
			ev.UserName = *req.Username
		}
		h.record(r, ev)
		writeError(w, http.StatusBadRequest, "Username and password required", "")
		return
	}

	id, uid, err := h.Users.Authenticate(r.Context(), *req.Username, *req.Password)
	if err != nil {
		ev := service.EventFor(access.Identity{}, service.ActionLoginAttempt, client)
		ev.UserID = uid
		ev.UserName = *req.Username
		h.record(r, ev)
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.Logger.Infow("Login: invalid credentials", "username", *req.Username, "ip", client.RemoteAddr)
		}
		h.fail(w, r, "Login", err, "User")
		return
	}

	token, expires, err := h.Tokens.Issue(id.UserID, id.Username, string(id.Role))
	if err != nil {
		h.record(r, service.EventFor(id, service.ActionLoginAttempt, client))
		h.Logger.Errorw("Login: failed to issue token", "user_id", id.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", "")
		return
	}

	h.record(r, service.EventFor(id, service.ActionLoginSuccess, client).Outcome(true))
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		User:      id.Username,
		Role:      string(id.Role),
		ExpiresAt: expires,
	})
}

// Logout только фиксирует событие: токены не отзываются и остаются
// действительными до истечения срока.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.record(r, service.EventFor(identity(r), service.ActionLogout, clientOf(r)).Outcome(true))
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
}

// Health — проверка живости без аутентификации.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   "API Key Management Service",
	})
}
