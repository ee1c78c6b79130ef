package handlers

import (
	"KeyVault/internal/service"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// KeyHandler — CRUD секретов.
type KeyHandler struct {
	base
	Secrets service.SecretStore
}

func NewKeyHandler(b base, secrets service.SecretStore) *KeyHandler {
	return &KeyHandler{base: b, Secrets: secrets}
}

type createKeyRequest struct {
	KeyName     *string `json:"key_name"`
	APIKey      *string `json:"api_key"`
	Description string  `json:"description"`
}

type updateKeyRequest struct {
	APIKey      *string `json:"api_key"`
	Description *string `json:"description"`
}

type keyResponse struct {
	KeyName     string    `json:"key_name"`
	APIKey      string    `json:"api_key"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type keyInfo struct {
	KeyName     string    `json:"key_name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type keyListResponse struct {
	Keys []keyInfo `json:"keys"`
}

// List — метаданные секретов без значений: администратору все, остальным свои.
func (h *KeyHandler) List(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	ev := service.EventFor(id, service.ActionListKeys, clientOf(r))

	items, err := h.Secrets.List(r.Context(), id)
	if err != nil {
		h.record(r, ev)
		h.fail(w, r, "ListKeys", err, "Key")
		return
	}

	resp := keyListResponse{Keys: make([]keyInfo, 0, len(items))}
	for _, it := range items {
		resp.Keys = append(resp.Keys, keyInfo{
			KeyName:     it.Name,
			Description: it.Description,
			CreatedBy:   it.CreatedBy,
			CreatedAt:   it.CreatedAt,
			UpdatedAt:   it.UpdatedAt,
		})
	}
	h.record(r, ev.Outcome(true))
	writeJSON(w, http.StatusOK, resp)
}

// Get — расшифрованное значение секрета.
func (h *KeyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	name := pathParam(r, "name")
	ev := service.EventFor(id, service.ActionViewKey, clientOf(r)).Key(name)

	v, err := h.Secrets.Get(r.Context(), id, name)
	if err != nil {
		h.record(r, ev)
		h.fail(w, r, "GetKey", err, "Key")
		return
	}

	h.record(r, ev.Outcome(true))
	writeJSON(w, http.StatusOK, keyResponse{
		KeyName:     v.Name,
		APIKey:      v.Value,
		Description: v.Description,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	})
}

// Create сохраняет новый секрет; вызывающий становится владельцем.
func (h *KeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	ev := service.EventFor(id, service.ActionAddKey, clientOf(r))

	var req createKeyRequest
	if err := decodeObject(w, r, &req); err != nil || req.KeyName == nil || req.APIKey == nil {
		if req.KeyName != nil {
			ev = ev.Key(strings.TrimSpace(*req.KeyName))
		}
		h.record(r, ev)
		writeError(w, http.StatusBadRequest, "Key name and API key are required", "")
		return
	}
	name := strings.TrimSpace(*req.KeyName)
	ev = ev.Key(name)

	err := h.Secrets.Create(r.Context(), id, name, *req.APIKey, req.Description)
	if errors.Is(err, service.ErrDuplicateName) {
		h.record(r, ev)
		writeError(w, http.StatusConflict, fmt.Sprintf("Key name %q already exists", name), "")
		return
	}
	if err != nil {
		h.record(r, ev)
		h.fail(w, r, "CreateKey", err, "Key")
		return
	}

	h.record(r, ev.Outcome(true))
	writeMessage(w, http.StatusCreated, "API key added successfully")
}

// Update — частичное изменение значения и/или описания.
func (h *KeyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	name := pathParam(r, "name")
	ev := service.EventFor(id, service.ActionUpdateKey, clientOf(r)).Key(name)

	var req updateKeyRequest
	if err := decodeObject(w, r, &req); err != nil {
		h.record(r, ev)
		writeError(w, http.StatusBadRequest, "No data provided for update", "")
		return
	}

	patch := service.SecretPatch{Value: req.APIKey, Description: req.Description}
	if err := h.Secrets.Update(r.Context(), id, name, patch); err != nil {
		h.record(r, ev)
		h.fail(w, r, "UpdateKey", err, "Key")
		return
	}

	h.record(r, ev.Outcome(true))
	if patch.Empty() {
		writeMessage(w, http.StatusOK, "No fields provided for update")
		return
	}
	writeMessage(w, http.StatusOK, "API key updated successfully")
}

// Delete удаляет секрет безвозвратно.
func (h *KeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	name := pathParam(r, "name")
	ev := service.EventFor(id, service.ActionDeleteKey, clientOf(r)).Key(name)

	if err := h.Secrets.Delete(r.Context(), id, name); err != nil {
		h.record(r, ev)
		h.fail(w, r, "DeleteKey", err, "Key")
		return
	}

	h.record(r, ev.Outcome(true))
	writeMessage(w, http.StatusOK, "API key deleted successfully")
}
