package repo

import (
	"KeyVault/internal/model"
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuditQuery — выборка журнала. Фильтры по подстроке применяются только непустые.
type AuditQuery struct {
	ActorID   *int64
	UserName  string
	Action    string
	IPAddress string
	Limit     int
}

// AuditRepository — журнал доступа только на добавление.
type AuditRepository interface {
	Append(ctx context.Context, e *model.AuditEntry) error
	// List возвращает записи, новые первыми.
	List(ctx context.Context, q AuditQuery) ([]model.AuditEntry, error)
}

type auditRepo struct {
	db *gorm.DB
}

// NewAuditRepository создаёт реализацию журнала доступа.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Append(ctx context.Context, e *model.AuditEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *auditRepo) List(ctx context.Context, q AuditQuery) ([]model.AuditEntry, error) {
	tx := r.db.WithContext(ctx).Model(&model.AuditEntry{})
	if q.ActorID != nil {
		tx = tx.Where("user_id = ?", *q.ActorID)
	}
	if q.UserName != "" {
		tx = tx.Where("user_name LIKE ? ESCAPE '\\'", containsPattern(q.UserName))
	}
	if q.Action != "" {
		tx = tx.Where("action LIKE ? ESCAPE '\\'", containsPattern(q.Action))
	}
	if q.IPAddress != "" {
		tx = tx.Where("ip_address LIKE ? ESCAPE '\\'", containsPattern(q.IPAddress))
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	var entries []model.AuditEntry
	err := tx.
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
		Find(&entries).Error
	return entries, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern — шаблон LIKE для поиска подстроки; % и _ из ввода ищутся буквально.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
