package handlers

import (
	"KeyVault/internal/service"
	"net/http"
	"time"
)

// LogHandler — просмотр журнала доступа.
type LogHandler struct {
	base
}

func NewLogHandler(b base) *LogHandler {
	return &LogHandler{base: b}
}

type logEntry struct {
	Timestamp time.Time `json:"timestamp"`
	UserName  *string   `json:"user_name"`
	KeyName   *string   `json:"key_name"`
	Action    string    `json:"action"`
	IPAddress string    `json:"ip_address"`
	Success   bool      `json:"success"`
}

type logListResponse struct {
	Logs []logEntry `json:"logs"`
}

// List — записи журнала, новые первыми. Необязательные фильтры по подстроке:
// user_name, action, ip_address. Лимит задаёт роль вызывающего.
func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	ev := service.EventFor(id, service.ActionListLogs, clientOf(r))

	q := r.URL.Query()
	entries, err := h.Audit.List(r.Context(), id, service.LogFilter{
		UserName:  q.Get("user_name"),
		Action:    q.Get("action"),
		IPAddress: q.Get("ip_address"),
	})
	if err != nil {
		h.record(r, ev)
		h.fail(w, r, "ListLogs", err, "Log")
		return
	}

	resp := logListResponse{Logs: make([]logEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Logs = append(resp.Logs, logEntry{
			Timestamp: e.Timestamp,
			UserName:  e.UserName,
			KeyName:   e.KeyName,
			Action:    e.Action,
			IPAddress: e.IPAddress,
			Success:   e.Success,
		})
	}
	// сам просмотр журнала фиксируется после выборки и в неё не попадает
	h.record(r, ev.Outcome(true))
	writeJSON(w, http.StatusOK, resp)
}
