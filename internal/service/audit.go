package service

import (
	"KeyVault/internal/access"
	"KeyVault/internal/model"
	"KeyVault/internal/repo"
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Action — тег действия в журнале доступа.
type Action string

const (
	ActionLoginAttempt Action = "login_attempt"
	ActionLoginSuccess Action = "login_success"
	ActionLogout       Action = "logout"
	ActionListKeys     Action = "list_keys"
	ActionViewKey      Action = "view_key"
	ActionAddKey       Action = "add_key"
	ActionUpdateKey    Action = "update_key"
	ActionDeleteKey    Action = "delete_key"
	ActionListLogs     Action = "list_logs"
	ActionListUsers    Action = "list_users"
	ActionAddUser      Action = "add_user"
	ActionUpdateUser   Action = "update_user"
	ActionDeleteUser   Action = "delete_user"
)

// Client — сетевой адрес и агент вызывающего.
type Client struct {
	RemoteAddr string
	UserAgent  string
}

// AuditEvent — одна попытка доступа. Пустые UserName и KeyName пишутся как NULL.
type AuditEvent struct {
	UserID   *int64
	UserName string
	KeyName  string
	Action   Action
	Success  bool
	Client   Client
}

// EventFor строит событие от имени проверенной идентичности.
func EventFor(id access.Identity, action Action, client Client) AuditEvent {
	ev := AuditEvent{Action: action, Client: client, UserName: id.Username}
	if id.Authenticated() {
		uid := id.UserID
		ev.UserID = &uid
	}
	return ev
}

// Key задаёт имя затронутого секрета.
func (e AuditEvent) Key(name string) AuditEvent {
	e.KeyName = name
	return e
}

// Outcome задаёт результат.
func (e AuditEvent) Outcome(ok bool) AuditEvent {
	e.Success = ok
	return e
}

// LogFilter — необязательные фильтры по подстроке. Лимит задаёт политика, а не клиент.
type LogFilter struct {
	UserName  string
	Action    string
	IPAddress string
}

// AuditService — журнал доступа только на добавление.
type AuditService struct {
	repo   repo.AuditRepository
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewAuditService(r repo.AuditRepository, logger *zap.SugaredLogger) *AuditService {
	return &AuditService{repo: r, logger: logger, now: time.Now}
}

// Record добавляет запись. Ошибка записи не возвращается вызывающему: она уходит
// в журнал сервера и не отменяет уже выполненную операцию.
func (s *AuditService) Record(ctx context.Context, ev AuditEvent) {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	entry := &model.AuditEntry{
		ID:        id.String(),
		UserID:    ev.UserID,
		UserName:  nullable(ev.UserName),
		KeyName:   nullable(ev.KeyName),
		Action:    string(ev.Action),
		Timestamp: s.now().UTC(),
		IPAddress: ev.Client.RemoteAddr,
		UserAgent: ev.Client.UserAgent,
		Success:   ev.Success,
	}
	// запрос мог быть уже отменён клиентом, запись журнала всё равно нужна
	if err := s.repo.Append(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Errorw("audit: failed to append entry",
			"action", entry.Action,
			"user_id", entry.UserID,
			"success", entry.Success,
			"error", err,
		)
	}
}

// List возвращает записи, новые первыми, в пределах области видимости вызывающего.
func (s *AuditService) List(ctx context.Context, caller access.Identity, f LogFilter) ([]model.AuditEntry, error) {
	if !caller.Authenticated() {
		return nil, ErrForbidden
	}
	scope := access.LogScopeFor(caller)
	entries, err := s.repo.List(ctx, repo.AuditQuery{
		ActorID:   scope.ActorID,
		UserName:  f.UserName,
		Action:    f.Action,
		IPAddress: f.IPAddress,
		Limit:     scope.Limit,
	})
	if err != nil {
		return nil, internal("list audit entries", err)
	}
	return entries, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
