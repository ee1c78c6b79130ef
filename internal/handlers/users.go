package handlers

import (
	"KeyVault/internal/access"
	"KeyVault/internal/service"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// UserHandler — управление пользователями (только администратор).
type UserHandler struct {
	base
	Users   *service.UserService
	Secrets service.SecretStore
}

func NewUserHandler(b base, users *service.UserService, secrets service.SecretStore) *UserHandler {
	return &UserHandler{base: b, Users: users, Secrets: secrets}
}

type createUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Role     string  `json:"role"`
}

type updateUserRequest struct {
	Password *string `json:"password"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

type userInfo struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`
	IsActive  bool       `json:"is_active"`
}

type userListResponse struct {
	Users []userInfo `json:"users"`
}

// List — все пользователи, новые первыми.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	ev := service.EventFor(id, service.ActionListUsers, clientOf(r))
	if !h.allowed(w, r, "ListUsers", ev) {
		return
	}

	users, err := h.Users.List(r.Context(), id)
	if err != nil {
		h.record(r, ev)
		h.fail(w, r, "ListUsers", err, "User")
		return
	}

	resp := userListResponse{Users: make([]userInfo, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, userInfo{
			ID:        u.ID,
			Username:  u.Username,
			Role:      string(u.Role),
			CreatedAt: u.CreatedAt,
			LastLogin: u.LastLogin,
			IsActive:  u.IsActive,
		})
	}
	h.record(r, ev.Outcome(true))
	writeJSON(w, http.StatusOK, resp)
}

// Create добавляет пользователя.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	ev := service.EventFor(id, service.ActionAddUser, clientOf(r))
	if !h.allowed(w, r, "CreateUser", ev) {
		return
	}

	var req createUserRequest
	if err := decodeObject(w, r, &req); err != nil || req.Username == nil || req.Password == nil {
		h.record(r, ev)
		writeError(w, http.StatusBadRequest, "Username and password are required", "")
		return
	}

	_, err := h.Users.Create(r.Context(), id, *req.Username, *req.Password, req.Role)
	if errors.Is(err, service.ErrDuplicateUsername) {
		h.record(r, ev)
		writeError(w, http.StatusConflict, fmt.Sprintf("Username %q already exists", *req.Username), "")
		return
	}
	if err != nil {
		h.record(r, ev)
		h.fail(w, r, "CreateUser", err, "User")
		return
	}

	h.record(r, ev.Outcome(true))
	h.Logger.Infow("User created", "username", *req.Username, "by", id.Username)
	writeMessage(w, http.StatusCreated, "User added successfully")
}

// Update — частичное изменение пароля, роли и признака активности.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	ev := service.EventFor(id, service.ActionUpdateUser, clientOf(r))
	if !h.allowed(w, r, "UpdateUser", ev) {
		return
	}

	userID, ok := parseUserID(r)
	if !ok {
		h.record(r, ev)
		writeError(w, http.StatusBadRequest, "Invalid user id", "")
		return
	}

	var req updateUserRequest
	if err := decodeObject(w, r, &req); err != nil {
		h.record(r, ev)
		writeError(w, http.StatusBadRequest, "No data provided for update", "")
		return
	}

	patch := service.UserPatch{Password: req.Password, Role: req.Role, Active: req.IsActive}
	if _, err := h.Users.Update(r.Context(), id, userID, patch); err != nil {
		h.record(r, ev)
		h.fail(w, r, "UpdateUser", err, "User")
		return
	}

	h.record(r, ev.Outcome(true))
	if patch.Empty() {
		writeMessage(w, http.StatusOK, "No fields provided for update")
		return
	}
	writeMessage(w, http.StatusOK, "User updated successfully")
}

// Delete удаляет пользователя вместе с его секретами.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	ev := service.EventFor(id, service.ActionDeleteUser, clientOf(r))
	if !h.allowed(w, r, "DeleteUser", ev) {
		return
	}

	userID, ok := parseUserID(r)
	if !ok {
		h.record(r, ev)
		writeError(w, http.StatusBadRequest, "Invalid user id", "")
		return
	}

	username, err := h.Users.Delete(r.Context(), id, userID)
	if err != nil {
		h.record(r, ev)
		h.fail(w, r, "DeleteUser", err, "User")
		return
	}

	// вместе с пользователем удалены его секреты; кэш расшифрованных значений сбрасываем целиком
	if p, ok := h.Secrets.(interface{ InvalidateAll() }); ok {
		p.InvalidateAll()
	}

	h.record(r, ev.Outcome(true))
	h.Logger.Infow("User deleted", "username", username, "by", id.Username)
	writeMessage(w, http.StatusOK, "User deleted successfully")
}

// allowed отсекает не-администраторов до разбора запроса: 403 и запись в журнал.
func (h *UserHandler) allowed(w http.ResponseWriter, r *http.Request, op string, ev service.AuditEvent) bool {
	if access.CanManageUsers(identity(r)) {
		return true
	}
	h.record(r, ev)
	h.fail(w, r, op, service.ErrForbidden, "User")
	return false
}

func parseUserID(r *http.Request) (int64, bool) {
	v, err := strconv.ParseInt(pathParam(r, "id"), 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
